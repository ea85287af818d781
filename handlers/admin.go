package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"rotibank-api/middleware"
	"rotibank-api/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AdminHandler serves user management, dashboard rollups and the audit log.
type AdminHandler struct {
	db *gorm.DB
}

func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

// writeLog appends an audit row for an admin mutation. Failures are logged
// but never fail the mutation itself.
func (h *AdminHandler) writeLog(tx *gorm.DB, c *gin.Context, action, targetType string, targetID uint, details string) error {
	entry := models.AdminLog{
		AdminID:    middleware.GetUserID(c),
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
		IPAddress:  c.ClientIP(),
		RequestID:  middleware.GetRequestID(c),
	}
	return tx.Create(&entry).Error
}

// ListUsers returns all users with search and role filters
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, limit, offset := pageParams(c)

	query := h.db.Model(&models.User{})
	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("email LIKE ? OR first_name LIKE ? OR last_name LIKE ?", pattern, pattern, pattern)
	}
	if userType := c.Query("user_type"); userType != "" {
		query = query.Where("user_type = ?", userType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	var users []models.User
	if err := query.Order("created_at desc").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	c.JSON(http.StatusOK, paged(users, page, limit, total))
}

// GetUser returns a single user with their role profile
func (h *AdminHandler) GetUser(c *gin.Context) {
	var user models.User
	if err := h.db.First(&user, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	profile, err := models.ProfileFor(h.db, user.Role, user.ID)
	if err != nil && err != models.ErrNoProfile {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "profile": profile})
}

type UpdateUserStatusRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// UpdateUserStatus activates or deactivates an account
func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	var req UpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.First(&user, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("is_active", *req.IsActive).Error; err != nil {
			return err
		}
		action := "deactivate_user"
		if *req.IsActive {
			action = "activate_user"
		}
		return h.writeLog(tx, c, action, "user", user.ID, user.Email)
	})
	if err != nil {
		log.Printf("user status update failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "User status updated successfully",
		"user_id":   user.ID,
		"is_active": *req.IsActive,
	})
}

// DeleteUser removes a user and everything the account owns: the role
// profile, its donations and any pickup requests touching them.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	var user models.User
	if err := h.db.First(&user, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if user.Role == models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin accounts cannot be deleted"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		switch user.Role {
		case models.RoleRestaurant:
			var restaurant models.Restaurant
			if err := tx.Where("user_id = ?", user.ID).First(&restaurant).Error; err == nil {
				var donationIDs []uint
				tx.Model(&models.FoodDonation{}).Where("restaurant_id = ?", restaurant.ID).
					Pluck("id", &donationIDs)
				if len(donationIDs) > 0 {
					if err := tx.Where("donation_id IN ?", donationIDs).
						Delete(&models.PickupRequest{}).Error; err != nil {
						return err
					}
					if err := tx.Where("restaurant_id = ?", restaurant.ID).
						Delete(&models.FoodDonation{}).Error; err != nil {
						return err
					}
				}
				if err := tx.Delete(&restaurant).Error; err != nil {
					return err
				}
			}
		case models.RoleVolunteer:
			var volunteer models.Volunteer
			if err := tx.Where("user_id = ?", user.ID).First(&volunteer).Error; err == nil {
				if err := tx.Where("volunteer_id = ?", volunteer.ID).
					Delete(&models.PickupRequest{}).Error; err != nil {
					return err
				}
				if err := tx.Delete(&volunteer).Error; err != nil {
					return err
				}
			}
		case models.RoleNgo:
			var ngo models.Ngo
			if err := tx.Where("user_id = ?", user.ID).First(&ngo).Error; err == nil {
				if err := tx.Where("ngo_id = ?", ngo.ID).
					Delete(&models.PickupRequest{}).Error; err != nil {
					return err
				}
				if err := tx.Delete(&ngo).Error; err != nil {
					return err
				}
			}
		}
		if err := tx.Delete(&user).Error; err != nil {
			return err
		}
		return h.writeLog(tx, c, "delete_user", "user", user.ID,
			fmt.Sprintf("%s (%s)", user.Email, user.Role))
	})
	if err != nil {
		log.Printf("user deletion failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully", "user_id": user.ID})
}

// ListDonations returns every donation with its restaurant (admin view)
func (h *AdminHandler) ListDonations(c *gin.Context) {
	page, limit, offset := pageParams(c)

	query := h.db.Model(&models.FoodDonation{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch donations"})
		return
	}

	var donations []models.FoodDonation
	if err := query.Preload("Restaurant").Preload("Restaurant.User").
		Order("created_at desc").Limit(limit).Offset(offset).
		Find(&donations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch donations"})
		return
	}

	c.JSON(http.StatusOK, paged(donations, page, limit, total))
}

type roleCount struct {
	Role        models.UserRole `json:"user_type" gorm:"column:user_type"`
	Count       int64           `json:"count"`
	ActiveCount int64           `json:"active_count"`
}

// Dashboard computes the admin rollups at request time. No caching.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	since := time.Now().AddDate(0, 0, -30)

	var totalUsers, newUsers int64
	h.db.Model(&models.User{}).Count(&totalUsers)
	h.db.Model(&models.User{}).Where("created_at >= ?", since).Count(&newUsers)

	var userStats []roleCount
	h.db.Model(&models.User{}).
		Select("user_type, COUNT(*) as count, SUM(CASE WHEN is_active THEN 1 ELSE 0 END) as active_count").
		Group("user_type").
		Scan(&userStats)

	var totalDonations int64
	var totalMeals, distributedMeals int64
	h.db.Model(&models.FoodDonation{}).Count(&totalDonations)
	h.db.Model(&models.FoodDonation{}).Select("COALESCE(SUM(quantity), 0)").Scan(&totalMeals)
	h.db.Model(&models.FoodDonation{}).Where("status = ?", models.DonationDistributed).
		Select("COALESCE(SUM(quantity), 0)").Scan(&distributedMeals)

	var recentUsers []models.User
	h.db.Order("created_at desc").Limit(10).Find(&recentUsers)

	c.JSON(http.StatusOK, gin.H{
		"totalStats": gin.H{
			"total_users":   totalUsers,
			"new_users_30d": newUsers,
		},
		"userStats": userStats,
		"donationStats": gin.H{
			"total_donations":   totalDonations,
			"total_meals":       totalMeals,
			"distributed_meals": distributedMeals,
		},
		"recentActivity": recentUsers,
	})
}

// ListLogs returns the append-only audit trail, newest first
func (h *AdminHandler) ListLogs(c *gin.Context) {
	page, limit, offset := pageParams(c)

	var total int64
	if err := h.db.Model(&models.AdminLog{}).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch logs"})
		return
	}

	var logs []models.AdminLog
	if err := h.db.Preload("Admin").Order("created_at desc").
		Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch logs"})
		return
	}

	c.JSON(http.StatusOK, paged(logs, page, limit, total))
}
