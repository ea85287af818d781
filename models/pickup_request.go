package models

import "time"

// RequestStatus represents all possible states of a pickup request
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestAccepted  RequestStatus = "accepted"
	RequestPickedUp  RequestStatus = "picked_up"
	RequestDelivered RequestStatus = "delivered"
	RequestCancelled RequestStatus = "cancelled"
)

// PickupRequest is a claim against a donation. Exactly one of VolunteerID
// and NgoID is set; the donation is flipped to claimed in the same
// transaction that creates the request.
type PickupRequest struct {
	ID           uint          `json:"id" gorm:"primaryKey"`
	DonationID   uint          `json:"donation_id" gorm:"not null"`
	Donation     FoodDonation  `json:"donation,omitempty" gorm:"foreignKey:DonationID;constraint:OnDelete:CASCADE"`
	VolunteerID  *uint         `json:"volunteer_id"`
	Volunteer    *Volunteer    `json:"volunteer,omitempty" gorm:"foreignKey:VolunteerID"`
	NgoID        *uint         `json:"ngo_id"`
	Ngo          *Ngo          `json:"ngo,omitempty" gorm:"foreignKey:NgoID"`
	Status       RequestStatus `json:"status" gorm:"not null;default:'pending'"`
	PickupTime   *time.Time    `json:"pickup_time"`
	DeliveryTime *time.Time    `json:"delivery_time"`
	Notes        string        `json:"notes"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Active reports whether the request still holds its donation's claim.
func (p *PickupRequest) Active() bool {
	return p.Status != RequestCancelled
}
