package handlers

import (
	"log"
	"net/http"
	"time"

	"rotibank-api/middleware"
	"rotibank-api/models"
	"rotibank-api/statemachine"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UserHandler serves the claimant-facing routes: browsing available
// donations, claiming them and per-role activity stats.
type UserHandler struct {
	db *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// AvailableDonations lists donations still open for claiming (volunteer/ngo)
func (h *UserHandler) AvailableDonations(c *gin.Context) {
	page, limit, offset := pageParams(c)

	query := h.db.Model(&models.FoodDonation{}).
		Joins("JOIN restaurants ON restaurants.id = food_donations.restaurant_id").
		Joins("JOIN users ON users.id = restaurants.user_id").
		Where("food_donations.status = ?", models.DonationAvailable)

	if foodType := c.Query("food_type"); foodType != "" {
		query = query.Where("food_donations.food_type LIKE ?", "%"+foodType+"%")
	}
	if city := c.Query("city"); city != "" {
		query = query.Where("users.city LIKE ?", "%"+city+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch available donations"})
		return
	}

	var donations []models.FoodDonation
	if err := query.Preload("Restaurant").Preload("Restaurant.User").
		Order("food_donations.created_at desc").Limit(limit).Offset(offset).
		Find(&donations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch available donations"})
		return
	}

	c.JSON(http.StatusOK, paged(donations, page, limit, total))
}

type RequestPickupRequest struct {
	DonationID uint   `json:"donation_id" binding:"required"`
	Notes      string `json:"notes"`
}

// RequestPickup claims an available donation. The request row and the
// donation's flip to claimed commit together, so a donation can never hold
// two active requests.
func (h *UserHandler) RequestPickup(c *gin.Context) {
	userID := middleware.GetUserID(c)
	role := middleware.GetRole(c)

	var req RequestPickupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := models.ProfileFor(h.db, role, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	request := models.PickupRequest{
		DonationID: req.DonationID,
		Status:     models.RequestPending,
		Notes:      req.Notes,
	}
	profileID := profile.ProfileID()
	if role == models.RoleVolunteer {
		request.VolunteerID = &profileID
	} else {
		request.NgoID = &profileID
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		var donation models.FoodDonation
		if err := tx.Where("id = ? AND status = ?", req.DonationID, models.DonationAvailable).
			First(&donation).Error; err != nil {
			return err
		}
		if err := statemachine.CanTransitionDonation(donation.Status, models.DonationClaimed, statemachine.ActorSystem); err != nil {
			return err
		}
		if err := tx.Create(&request).Error; err != nil {
			return err
		}
		return tx.Model(&donation).Update("status", models.DonationClaimed).Error
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Donation not found or not available"})
			return
		}
		log.Printf("pickup request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create pickup request"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Pickup request created successfully",
		"request_id": request.ID,
	})
}

// Stats returns the caller's cumulative activity rollup
func (h *UserHandler) Stats(c *gin.Context) {
	userID := middleware.GetUserID(c)
	role := middleware.GetRole(c)

	profile, err := models.ProfileFor(h.db, role, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	since := time.Now().AddDate(0, 0, -30)
	stats := gin.H{"profile": profile}

	switch role {
	case models.RoleRestaurant:
		var listings, recent int64
		var mealsDonated int64
		h.db.Model(&models.FoodDonation{}).Where("restaurant_id = ?", profile.ProfileID()).Count(&listings)
		h.db.Model(&models.FoodDonation{}).
			Where("restaurant_id = ? AND created_at >= ?", profile.ProfileID(), since).Count(&recent)
		h.db.Model(&models.FoodDonation{}).
			Where("restaurant_id = ? AND status = ?", profile.ProfileID(), models.DonationDistributed).
			Select("COALESCE(SUM(quantity), 0)").Scan(&mealsDonated)
		stats["total_listings"] = listings
		stats["meals_donated"] = mealsDonated
		stats["donations_30d"] = recent
	case models.RoleVolunteer:
		var requests, completed, recent int64
		h.db.Model(&models.PickupRequest{}).Where("volunteer_id = ?", profile.ProfileID()).Count(&requests)
		h.db.Model(&models.PickupRequest{}).
			Where("volunteer_id = ? AND status = ?", profile.ProfileID(), models.RequestDelivered).Count(&completed)
		h.db.Model(&models.PickupRequest{}).
			Where("volunteer_id = ? AND created_at >= ?", profile.ProfileID(), since).Count(&recent)
		stats["total_requests"] = requests
		stats["completed_pickups"] = completed
		stats["pickups_30d"] = recent
	case models.RoleNgo:
		var received, completed, recent int64
		h.db.Model(&models.PickupRequest{}).Where("ngo_id = ?", profile.ProfileID()).Count(&received)
		h.db.Model(&models.PickupRequest{}).
			Where("ngo_id = ? AND status = ?", profile.ProfileID(), models.RequestDelivered).Count(&completed)
		h.db.Model(&models.PickupRequest{}).
			Where("ngo_id = ? AND created_at >= ?", profile.ProfileID(), since).Count(&recent)
		stats["total_received"] = received
		stats["completed_distributions"] = completed
		stats["distributions_30d"] = recent
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
