package api

import (
	"log"
	"strings"
	"time"

	api_utils "github.com/ethanbaker/api/pkg/utils"
	"github.com/ethanbaker/bankchat/pkg/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	account_module "github.com/ethanbaker/bankchat/internal/api/modules/account"
	chat_module "github.com/ethanbaker/bankchat/internal/api/modules/chat"
	health_module "github.com/ethanbaker/bankchat/internal/api/modules/health"
)

func Start(cfg *utils.Config) {
	// Initialized configuration settings
	port := cfg.GetWithDefault("API_PORT", "8080")

	// Add app level settings/routes
	engine := gin.Default()
	engine.NoRoute(api_utils.NoRouteHandler)

	// Add trusted proxies
	engine.SetTrustedProxies(nil)

	// Add CORS using gin-contrib/cors (https://github.com/gin-contrib/cors for documentation)
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.GetWithDefault("CORS_ALLOWED_ORIGINS", "*"), ","),
		AllowMethods:     []string{"OPTIONS", "GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-API-KEY"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Health lives at the root so load balancers can reach it without the
	// API prefix
	rootGroup := engine.Group("")
	health_module.RegisterRoutes(rootGroup)

	// Base group '/api' for all API routes
	baseGroup := engine.Group("/api")

	// Adding custom modules
	if err := chat_module.Init(cfg); err != nil {
		log.Fatal("[API-MAIN]: Failed to initialize chat service: ", err)
	}
	chat_module.RegisterRoutes(baseGroup, cfg)

	account_module.RegisterRoutes(baseGroup)

	// Then after performing initial setup, start the server
	if err := engine.Run(":" + port); err != nil {
		log.Fatal("[API-MAIN]: Failed to start server: ", err)
	}
}
