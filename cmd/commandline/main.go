package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ethanbaker/bankchat/pkg/sdk"
	"github.com/ethanbaker/bankchat/pkg/utils"
)

// Interactive banking chat against a running backend
func main() {
	// Find env file
	envFile := ".env"
	if os.Getenv("ENV_FILE") != "" {
		envFile = os.Getenv("ENV_FILE")
	}

	// Load global config
	cfg := utils.NewConfigFromEnv(envFile)

	baseURL := cfg.GetWithDefault("BACKEND_URL", "http://localhost:8080")
	client := sdk.NewClient(baseURL, cfg.Get("API_KEY"))

	ctx := context.Background()
	if err := client.Health(ctx); err != nil {
		log.Fatalf("[COMMANDLINE]: Backend at %s is not reachable: %v", baseURL, err)
	}

	if err := startInteractiveSession(ctx, client, cfg.Get("USER_ID")); err != nil {
		log.Fatalf("[COMMANDLINE]: %v", err)
	}
}

// startInteractiveSession runs the read-send-print loop until the user exits
func startInteractiveSession(ctx context.Context, client *sdk.Client, userID string) error {
	fmt.Println("Banking assistant started. Type 'exit' to quit.")

	scanner := bufio.NewScanner(os.Stdin)

	// The session is created lazily by the first message and carried forward
	var sessionID string

	for {
		fmt.Print("\n> ")

		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if strings.EqualFold(input, "exit") {
			fmt.Println("Goodbye!")
			break
		}

		resp, err := client.Chat(ctx, &sdk.ChatRequest{
			SessionID: sessionID,
			UserID:    userID,
			Message:   input,
		})
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}

		sessionID = resp.SessionID
		fmt.Println(resp.Reply)
	}

	return scanner.Err()
}
