package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethanbaker/api/pkg/api_types"
)

// Client wraps calls to the banking chatbot backend
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Send a chat message, optionally continuing an existing session
func (c *Client) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	path := "/api/chat"

	var out ApiResponse[ChatResponse]
	if err := c.doJSON(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}

	// Check for success
	switch out.Status {
	case api_types.StatusFail:
		return nil, fmt.Errorf("chat failed: %s", out.Message)
	case api_types.StatusError:
		return nil, fmt.Errorf("chat error (%s): %v", out.Message, out.Error)
	}

	return &out.Data, nil
}

// Get the balance of an account by UUID or account number
func (c *Client) Balance(ctx context.Context, accountID string) (*AccountBalance, error) {
	path := fmt.Sprintf("/api/balance/%s", accountID)

	var out ApiResponse[AccountBalance]
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	switch out.Status {
	case api_types.StatusFail:
		return nil, fmt.Errorf("failed to get balance: %s", out.Message)
	case api_types.StatusError:
		return nil, fmt.Errorf("error getting balance (%s): %v", out.Message, out.Error)
	}

	return &out.Data, nil
}

// Get the transaction history of an account by UUID or account number
func (c *Client) History(ctx context.Context, accountID string) (*HistoryResponse, error) {
	path := fmt.Sprintf("/api/history/%s", accountID)

	var out ApiResponse[HistoryResponse]
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	switch out.Status {
	case api_types.StatusFail:
		return nil, fmt.Errorf("failed to get history: %s", out.Message)
	case api_types.StatusError:
		return nil, fmt.Errorf("error getting history (%s): %v", out.Message, out.Error)
	}

	return &out.Data, nil
}

// Check whether the backend is up
func (c *Client) Health(ctx context.Context) error {
	var out ApiResponse[any]
	return c.doJSON(ctx, http.MethodGet, "/health", nil, &out)
}

// doJSON is a helper to perform JSON requests to the backend
func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any) error {
	// Create request body if input is provided
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(b)
	}

	// Create the request
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-KEY", c.apiKey)
	}

	// Perform the request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// On error, read body and return error
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("[BACKEND]: backend '%s %s' failed: %d: %s", method, path, resp.StatusCode, string(b))
	}

	// If no output expected, return early
	if out == nil {
		return nil
	}

	// Decode the response body into the output struct
	dec := json.NewDecoder(resp.Body)
	return dec.Decode(out)
}
