package account

import "github.com/gin-gonic/gin"

// Register routes for the account module
func RegisterRoutes(g *gin.RouterGroup) {
	g.GET("/balance/:id", GetBalance) // Get the balance of one account
	g.GET("/history/:id", GetHistory) // Get recent transactions for one account
}
