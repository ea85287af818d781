package handlers

import (
	"log"
	"net/http"
	"time"

	"rotibank-api/middleware"
	"rotibank-api/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthHandler serves registration, login and profile routes.
type AuthHandler struct {
	db       *gorm.DB
	secret   []byte
	tokenTTL time.Duration
}

func NewAuthHandler(db *gorm.DB, secret []byte, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{db: db, secret: secret, tokenTTL: tokenTTL}
}

type RegisterRequest struct {
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=6"`
	Role     models.UserRole `json:"user_type" binding:"required,oneof=restaurant volunteer ngo"`
	FirstName string         `json:"first_name" binding:"required"`
	LastName  string         `json:"last_name" binding:"required"`
	Phone     string         `json:"phone"`
	Address   string         `json:"address"`
	City      string         `json:"city"`
	State     string         `json:"state"`
	ZipCode   string         `json:"zip_code"`

	// Restaurant profile fields
	RestaurantName string `json:"restaurant_name"`
	CuisineType    string `json:"cuisine_type"`
	LicenseNumber  string `json:"license_number"`
	Capacity       int    `json:"capacity"`
	OperatingHours string `json:"operating_hours"`
	Description    string `json:"description"`

	// Volunteer profile fields
	Availability string `json:"availability"`
	VehicleType  string `json:"vehicle_type"`
	MaxDistance  int    `json:"max_distance"`
	Skills       string `json:"skills"`

	// NGO profile fields
	OrganizationName   string `json:"organization_name"`
	RegistrationNumber string `json:"registration_number"`
	Cause              string `json:"cause"`
	TargetAudience     string `json:"target_audience"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// profileFromRegistration builds the role-specific profile row for a new user.
func profileFromRegistration(req *RegisterRequest, userID uint) models.Profile {
	switch req.Role {
	case models.RoleRestaurant:
		return &models.Restaurant{
			UserID:         userID,
			RestaurantName: req.RestaurantName,
			CuisineType:    req.CuisineType,
			LicenseNumber:  req.LicenseNumber,
			Capacity:       req.Capacity,
			OperatingHours: req.OperatingHours,
			Description:    req.Description,
		}
	case models.RoleVolunteer:
		v := &models.Volunteer{
			UserID:       userID,
			Availability: req.Availability,
			VehicleType:  req.VehicleType,
			Skills:       req.Skills,
		}
		if req.MaxDistance > 0 {
			v.MaxDistance = req.MaxDistance
		} else {
			v.MaxDistance = 10
		}
		return v
	case models.RoleNgo:
		return &models.Ngo{
			UserID:             userID,
			OrganizationName:   req.OrganizationName,
			RegistrationNumber: req.RegistrationNumber,
			Cause:              req.Cause,
			TargetAudience:     req.TargetAudience,
			Capacity:           req.Capacity,
			Description:        req.Description,
		}
	}
	return nil
}

// Register creates a new user account with its role profile
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.User
	if result := h.db.Where("email = ?", req.Email).First(&existing); result.Error == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "User with this email already exists"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Address:      req.Address,
		City:         req.City,
		State:        req.State,
		ZipCode:      req.ZipCode,
		IsActive:     true,
	}

	// User and profile rows are created together or not at all
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(profileFromRegistration(&req, user.ID)).Error
	})
	if err != nil {
		log.Printf("registration failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
		return
	}

	token, err := middleware.GenerateToken(&user, h.secret, h.tokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"token":   token,
		"user": gin.H{
			"id":          user.ID,
			"email":       user.Email,
			"user_type":   user.Role,
			"first_name":  user.FirstName,
			"last_name":   user.LastName,
			"is_verified": user.IsVerified,
		},
	})
}

// Login authenticates a user and returns a JWT
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account is deactivated"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := middleware.GenerateToken(&user, h.secret, h.tokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user": gin.H{
			"id":          user.ID,
			"email":       user.Email,
			"user_type":   user.Role,
			"first_name":  user.FirstName,
			"last_name":   user.LastName,
			"is_verified": user.IsVerified,
		},
	})
}

// GetProfile returns the authenticated user's account plus role profile
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	profile, err := models.ProfileFor(h.db, user.Role, user.ID)
	if err != nil && err != models.ErrNoProfile {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "profile": profile})
}

type UpdateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
	City      *string `json:"city"`
	State     *string `json:"state"`
	ZipCode   *string `json:"zip_code"`
}

// UpdateProfile patches the caller's contact fields; omitted fields are kept
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.City != nil {
		updates["city"] = *req.City
	}
	if req.State != nil {
		updates["state"] = *req.State
	}
	if req.ZipCode != nil {
		updates["zip_code"] = *req.ZipCode
	}

	if len(updates) > 0 {
		if err := h.db.Model(&user).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully"})
}
