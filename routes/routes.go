package routes

import (
	"time"

	"rotibank-api/config"
	"rotibank-api/handlers"
	"rotibank-api/middleware"
	"rotibank-api/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes wires every handler onto the engine. The database handle and
// config are injected; nothing here reads process-global state.
func SetupRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	secret := cfg.Secret()
	ttl := time.Duration(cfg.TokenTTLHours) * time.Hour

	authHandler := handlers.NewAuthHandler(db, secret, ttl)
	foodHandler := handlers.NewFoodHandler(db)
	userHandler := handlers.NewUserHandler(db)
	adminHandler := handlers.NewAdminHandler(db)

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.POST("/auth/register", authHandler.Register)
		public.POST("/auth/login", authHandler.Login)

		// Lifecycle info (great for docs/Postman)
		public.GET("/state-machine", handlers.GetStateMachineInfo)
	}

	// ── Authenticated profile routes ───────────────────────────────
	auth := r.Group("/api/auth")
	auth.Use(middleware.AuthRequired(secret))
	{
		auth.GET("/profile", authHandler.GetProfile)
		auth.PUT("/profile", authHandler.UpdateProfile)
	}

	// ── User routes (profiles, browsing, claiming) ─────────────────
	users := r.Group("/api/users")
	users.Use(middleware.AuthRequired(secret))
	{
		users.GET("/profile", authHandler.GetProfile)
		users.PUT("/profile", authHandler.UpdateProfile)
		users.GET("/stats", userHandler.Stats)

		claimants := users.Group("")
		claimants.Use(middleware.RoleRequired(models.RoleVolunteer, models.RoleNgo))
		{
			claimants.GET("/available-donations", userHandler.AvailableDonations)
			claimants.POST("/request-pickup", userHandler.RequestPickup)
		}
	}

	// ── Food lifecycle routes ──────────────────────────────────────
	food := r.Group("/api/food")
	food.Use(middleware.AuthRequired(secret))
	{
		restaurants := food.Group("")
		restaurants.Use(middleware.RoleRequired(models.RoleRestaurant))
		{
			restaurants.POST("/donations", foodHandler.CreateDonation)
			restaurants.GET("/donations", foodHandler.ListDonations)
			restaurants.PUT("/donations/:id/status", foodHandler.UpdateDonationStatus)
		}

		claimants := food.Group("")
		claimants.Use(middleware.RoleRequired(models.RoleVolunteer, models.RoleNgo))
		{
			claimants.GET("/pickup-requests", foodHandler.ListPickupRequests)
			claimants.PUT("/pickup-requests/:id/status", foodHandler.UpdateRequestStatus)
		}
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthRequired(secret), middleware.RoleRequired(models.RoleAdmin))
	{
		admin.GET("/users", adminHandler.ListUsers)
		admin.GET("/users/:id", adminHandler.GetUser)
		admin.PUT("/users/:id/status", adminHandler.UpdateUserStatus)
		admin.DELETE("/users/:id", adminHandler.DeleteUser)
		admin.GET("/donations", adminHandler.ListDonations)
		admin.GET("/dashboard", adminHandler.Dashboard)
		admin.GET("/logs", adminHandler.ListLogs)
	}
}
