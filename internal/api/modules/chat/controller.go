package chat

import (
	"net/http"

	"github.com/ethanbaker/bankchat/pkg/sdk"
	"github.com/gin-gonic/gin"
)

// PostChat handles POST requests carrying one chat message
func PostChat(c *gin.Context) {
	// Parse request body
	var req sdk.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err.Error()).AsGinResponse())
		return
	}

	// Run one dialogue turn using the orchestrator
	orchestrator := GetOrchestrator()
	resp, err := orchestrator.Chat(c.Request.Context(), &req)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, "Failed to process message", err.Error()).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse("Message processed successfully", resp).AsGinResponse())
}
