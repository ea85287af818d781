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

// FoodHandler serves the donation and pickup-request lifecycle routes.
type FoodHandler struct {
	db *gorm.DB
}

func NewFoodHandler(db *gorm.DB) *FoodHandler {
	return &FoodHandler{db: db}
}

// donationPointsPerMeal is the credit a restaurant earns per listed meal.
const donationPointsPerMeal = 10

// deliveryPoints is the fixed award a claimant earns per completed delivery.
const deliveryPoints = 5

type CreateDonationRequest struct {
	FoodType    string     `json:"food_type" binding:"required"`
	Quantity    int        `json:"quantity" binding:"required,min=1"`
	Description string     `json:"description"`
	PickupTime  *time.Time `json:"pickup_time"`
	ExpiryDate  *time.Time `json:"expiry_date"`
}

// CreateDonation lists surplus food (restaurant only). The donation row and
// the restaurant's counters are written in one transaction.
func (h *FoodHandler) CreateDonation(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req CreateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := models.ProfileFor(h.db, models.RoleRestaurant, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant profile not found"})
		return
	}

	donation := models.FoodDonation{
		RestaurantID: profile.ProfileID(),
		FoodType:     req.FoodType,
		Quantity:     req.Quantity,
		Description:  req.Description,
		PickupTime:   req.PickupTime,
		ExpiryDate:   req.ExpiryDate,
		Status:       models.DonationAvailable,
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&donation).Error; err != nil {
			return err
		}
		profile.Credit(req.Quantity*donationPointsPerMeal, req.Quantity)
		return tx.Save(profile).Error
	})
	if err != nil {
		log.Printf("donation creation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create food donation"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Food donation created successfully",
		"donation_id": donation.ID,
		"donation":    donation,
	})
}

// ListDonations returns the caller's donations with any linked requests
func (h *FoodHandler) ListDonations(c *gin.Context) {
	userID := middleware.GetUserID(c)

	profile, err := models.ProfileFor(h.db, models.RoleRestaurant, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant profile not found"})
		return
	}

	page, limit, offset := pageParams(c)

	query := h.db.Model(&models.FoodDonation{}).Where("restaurant_id = ?", profile.ProfileID())
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch donations"})
		return
	}

	var donations []models.FoodDonation
	if err := query.Preload("Requests").Preload("Requests.Volunteer.User").Preload("Requests.Ngo.User").
		Order("created_at desc").Limit(limit).Offset(offset).
		Find(&donations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch donations"})
		return
	}

	c.JSON(http.StatusOK, paged(donations, page, limit, total))
}

type UpdateDonationStatusRequest struct {
	Status models.DonationStatus `json:"status" binding:"required,oneof=available claimed picked_up distributed expired"`
}

// UpdateDonationStatus handles the owning restaurant's direct transitions.
// Advancing past claimed drags the active pickup request along.
func (h *FoodHandler) UpdateDonationStatus(c *gin.Context) {
	userID := middleware.GetUserID(c)
	donationID := c.Param("id")

	var req UpdateDonationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := models.ProfileFor(h.db, models.RoleRestaurant, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant profile not found"})
		return
	}

	// Ownership and existence are deliberately conflated in the response
	var donation models.FoodDonation
	if err := h.db.Where("id = ? AND restaurant_id = ?", donationID, profile.ProfileID()).
		First(&donation).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Donation not found or access denied"})
		return
	}

	if err := statemachine.CanTransitionDonation(donation.Status, req.Status, statemachine.ActorRestaurant); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":             "Invalid state transition",
			"current_status":    donation.Status,
			"requested":         req.Status,
			"reason":            err.Error(),
			"valid_next_states": statemachine.ValidDonationTransitionsFrom(donation.Status),
		})
		return
	}

	prevStatus := donation.Status
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&donation).Update("status", req.Status).Error; err != nil {
			return err
		}
		switch req.Status {
		case models.DonationPickedUp:
			return h.syncActiveRequest(tx, donation.ID, models.RequestPickedUp)
		case models.DonationDistributed:
			return h.syncActiveRequest(tx, donation.ID, models.RequestDelivered)
		}
		return nil
	})
	if err != nil {
		log.Printf("donation status update failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update donation status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":         "Donation status updated successfully",
		"donation_id":     donation.ID,
		"previous_status": prevStatus,
		"current_status":  req.Status,
	})
}

// syncActiveRequest moves the donation's active request in lockstep when the
// restaurant force-advances the donation. Delivery credit is granted here
// too, so the claimant is paid exactly once whichever side drives the final
// transition.
func (h *FoodHandler) syncActiveRequest(tx *gorm.DB, donationID uint, to models.RequestStatus) error {
	var request models.PickupRequest
	err := tx.Where("donation_id = ? AND status <> ?", donationID, models.RequestCancelled).
		First(&request).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil // direct handoff without a request
		}
		return err
	}
	if request.Status == to {
		return nil
	}
	if err := statemachine.CanTransitionRequest(request.Status, to, statemachine.ActorSystem); err != nil {
		return err
	}

	updates := map[string]interface{}{"status": to}
	if to == models.RequestDelivered {
		now := time.Now()
		updates["delivery_time"] = &now
	}
	if err := tx.Model(&request).Updates(updates).Error; err != nil {
		return err
	}
	if to == models.RequestDelivered {
		return creditClaimant(tx, &request)
	}
	return nil
}

// creditClaimant awards the delivery points and completion count to
// whichever profile holds the claim.
func creditClaimant(tx *gorm.DB, request *models.PickupRequest) error {
	var profile models.Profile
	switch {
	case request.VolunteerID != nil:
		v := &models.Volunteer{}
		if err := tx.First(v, *request.VolunteerID).Error; err != nil {
			return err
		}
		profile = v
	case request.NgoID != nil:
		n := &models.Ngo{}
		if err := tx.First(n, *request.NgoID).Error; err != nil {
			return err
		}
		profile = n
	default:
		return nil
	}
	profile.Credit(deliveryPoints, 1)
	return tx.Save(profile).Error
}

// ListPickupRequests returns the caller's own requests (volunteer/ngo)
func (h *FoodHandler) ListPickupRequests(c *gin.Context) {
	userID := middleware.GetUserID(c)
	role := middleware.GetRole(c)

	profile, err := models.ProfileFor(h.db, role, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	page, limit, offset := pageParams(c)

	query := h.db.Model(&models.PickupRequest{})
	if role == models.RoleVolunteer {
		query = query.Where("volunteer_id = ?", profile.ProfileID())
	} else {
		query = query.Where("ngo_id = ?", profile.ProfileID())
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch pickup requests"})
		return
	}

	var requests []models.PickupRequest
	if err := query.Preload("Donation").Preload("Donation.Restaurant").Preload("Donation.Restaurant.User").
		Order("created_at desc").Limit(limit).Offset(offset).
		Find(&requests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch pickup requests"})
		return
	}

	c.JSON(http.StatusOK, paged(requests, page, limit, total))
}

type UpdateRequestStatusRequest struct {
	Status models.RequestStatus `json:"status" binding:"required,oneof=accepted picked_up delivered cancelled"`
}

// UpdateRequestStatus handles the claimant's state transitions. Reaching
// picked_up/delivered advances the donation in the same transaction, and
// delivered credits the claimant exactly once.
func (h *FoodHandler) UpdateRequestStatus(c *gin.Context) {
	userID := middleware.GetUserID(c)
	role := middleware.GetRole(c)
	requestID := c.Param("id")

	var req UpdateRequestStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := models.ProfileFor(h.db, role, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	var request models.PickupRequest
	query := h.db.Where("id = ?", requestID)
	if role == models.RoleVolunteer {
		query = query.Where("volunteer_id = ?", profile.ProfileID())
	} else {
		query = query.Where("ngo_id = ?", profile.ProfileID())
	}
	if err := query.First(&request).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Request not found or access denied"})
		return
	}

	if err := statemachine.CanTransitionRequest(request.Status, req.Status, string(role)); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":             "Invalid state transition",
			"current_status":    request.Status,
			"requested":         req.Status,
			"reason":            err.Error(),
			"valid_next_states": statemachine.ValidRequestTransitionsFrom(request.Status),
		})
		return
	}

	prevStatus := request.Status
	err = h.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"status": req.Status}
		if req.Status == models.RequestDelivered {
			now := time.Now()
			updates["delivery_time"] = &now
		}
		if err := tx.Model(&request).Updates(updates).Error; err != nil {
			return err
		}

		switch req.Status {
		case models.RequestPickedUp:
			if err := h.advanceDonation(tx, request.DonationID, models.DonationPickedUp); err != nil {
				return err
			}
		case models.RequestDelivered:
			if err := h.advanceDonation(tx, request.DonationID, models.DonationDistributed); err != nil {
				return err
			}
			profile.Credit(deliveryPoints, 1)
			if err := tx.Save(profile).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("request status update failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update request status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":         "Request status updated successfully",
		"request_id":      request.ID,
		"previous_status": prevStatus,
		"current_status":  req.Status,
	})
}

// advanceDonation moves the linked donation as a side effect of the
// claimant's transition.
func (h *FoodHandler) advanceDonation(tx *gorm.DB, donationID uint, to models.DonationStatus) error {
	var donation models.FoodDonation
	if err := tx.First(&donation, donationID).Error; err != nil {
		return err
	}
	if donation.Status == to {
		return nil
	}
	if err := statemachine.CanTransitionDonation(donation.Status, to, statemachine.ActorSystem); err != nil {
		return err
	}
	return tx.Model(&donation).Update("status", to).Error
}
