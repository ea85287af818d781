package models

import "time"

// DonationStatus represents all possible states of a food donation
type DonationStatus string

const (
	DonationAvailable   DonationStatus = "available"
	DonationClaimed     DonationStatus = "claimed"
	DonationPickedUp    DonationStatus = "picked_up"
	DonationDistributed DonationStatus = "distributed"
	DonationExpired     DonationStatus = "expired"
)

type FoodDonation struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	RestaurantID uint            `json:"restaurant_id" gorm:"not null"`
	Restaurant   Restaurant      `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID;constraint:OnDelete:CASCADE"`
	FoodType     string          `json:"food_type" gorm:"not null"`
	Quantity     int             `json:"quantity" gorm:"not null"`
	Description  string          `json:"description"`
	PickupTime   *time.Time      `json:"pickup_time"`
	ExpiryDate   *time.Time      `json:"expiry_date"`
	Status       DonationStatus  `json:"status" gorm:"not null;default:'available'"`
	Requests     []PickupRequest `json:"requests,omitempty" gorm:"foreignKey:DonationID"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
