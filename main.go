package main

import (
	"log"
	"net/http"

	"rotibank-api/config"
	"rotibank-api/middleware"
	"rotibank-api/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	gin.SetMode(cfg.GinMode)

	db, err := config.OpenDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Create Gin router with default middleware (logger + recovery)
	r := gin.Default()

	// CORS for frontend integration
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsCfg))

	r.Use(middleware.RequestID())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "RotiBank Food Donation API",
			"version": "1.0.0",
		})
	})

	// Welcome
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Welcome to the RotiBank Food Donation Coordination API",
			"docs":    "/api/state-machine",
			"health":  "/health",
			"roles":   []string{"restaurant", "volunteer", "ngo", "admin"},
		})
	})

	routes.SetupRoutes(r, db, cfg)

	log.Printf("server running on http://localhost:%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
