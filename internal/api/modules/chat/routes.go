package chat

import (
	"github.com/ethanbaker/api/pkg/api_key"
	"github.com/ethanbaker/bankchat/pkg/utils"
	"github.com/gin-gonic/gin"
)

// Register routes for the chat module
func RegisterRoutes(g *gin.RouterGroup, cfg *utils.Config) {
	group := g.Group("")

	// Gate the chat endpoint behind an API key when one is configured
	if apiKey := cfg.Get("API_KEY"); apiKey != "" {
		validator := func(key string) bool { return key == apiKey }
		group.Handlers = append(group.Handlers, api_key.APIKeyHeaderHandler(validator))
	}

	group.POST("/chat", PostChat) // Send a message to the chatbot
}
