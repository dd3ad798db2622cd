package health

import (
	"github.com/ethanbaker/bankchat/pkg/sdk"
	"github.com/gin-gonic/gin"
)

// getStatus handles GET requests to check service health
func getStatus(c *gin.Context) {
	c.JSON(sdk.NewSuccess("Service is healthy").AsGinResponse())
}
