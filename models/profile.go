package models

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNoProfile is returned when a user has no profile row for their role.
var ErrNoProfile = errors.New("profile not found for user")

// Profile is the uniform capability set shared by the role-specific
// extension rows. Counter mutation goes through Credit so callers never
// switch on the role tag.
type Profile interface {
	Role() UserRole
	OwnerID() uint
	ProfileID() uint
	// Credit adds points and bumps the role's cumulative counter
	// (total_donations, total_pickups or total_distributions).
	Credit(points, count int)
}

type Restaurant struct {
	ID             uint    `json:"id" gorm:"primaryKey"`
	UserID         uint    `json:"user_id" gorm:"not null"`
	User           User    `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	RestaurantName string  `json:"restaurant_name" gorm:"not null"`
	CuisineType    string  `json:"cuisine_type"`
	LicenseNumber  string  `json:"license_number"`
	Capacity       int     `json:"capacity"`
	OperatingHours string  `json:"operating_hours"`
	Description    string  `json:"description"`
	Rating         float64 `json:"rating" gorm:"default:0"`
	TotalDonations int     `json:"total_donations" gorm:"default:0"`
	Points         int     `json:"points" gorm:"default:0"`
}

func (r *Restaurant) Role() UserRole  { return RoleRestaurant }
func (r *Restaurant) OwnerID() uint   { return r.UserID }
func (r *Restaurant) ProfileID() uint { return r.ID }

func (r *Restaurant) Credit(points, count int) {
	r.Points += points
	r.TotalDonations += count
}

type Volunteer struct {
	ID           uint    `json:"id" gorm:"primaryKey"`
	UserID       uint    `json:"user_id" gorm:"not null"`
	User         User    `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Availability string  `json:"availability"`
	VehicleType  string  `json:"vehicle_type"`
	MaxDistance  int     `json:"max_distance" gorm:"default:10"`
	Skills       string  `json:"skills"`
	TotalPickups int     `json:"total_pickups" gorm:"default:0"`
	Points       int     `json:"points" gorm:"default:0"`
	Rating       float64 `json:"rating" gorm:"default:0"`
}

func (v *Volunteer) Role() UserRole  { return RoleVolunteer }
func (v *Volunteer) OwnerID() uint   { return v.UserID }
func (v *Volunteer) ProfileID() uint { return v.ID }

func (v *Volunteer) Credit(points, count int) {
	v.Points += points
	v.TotalPickups += count
}

type Ngo struct {
	ID                 uint   `json:"id" gorm:"primaryKey"`
	UserID             uint   `json:"user_id" gorm:"not null"`
	User               User   `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	OrganizationName   string `json:"organization_name" gorm:"not null"`
	RegistrationNumber string `json:"registration_number"`
	Cause              string `json:"cause"`
	TargetAudience     string `json:"target_audience"`
	Capacity           int    `json:"capacity"`
	Description        string `json:"description"`
	TotalDistributions int    `json:"total_distributions" gorm:"default:0"`
	Points             int    `json:"points" gorm:"default:0"`
}

func (n *Ngo) Role() UserRole  { return RoleNgo }
func (n *Ngo) OwnerID() uint   { return n.UserID }
func (n *Ngo) ProfileID() uint { return n.ID }

func (n *Ngo) Credit(points, count int) {
	n.Points += points
	n.TotalDistributions += count
}

// ProfileFor loads the profile row matching a user's role.
func ProfileFor(db *gorm.DB, role UserRole, userID uint) (Profile, error) {
	var p Profile
	switch role {
	case RoleRestaurant:
		p = &Restaurant{}
	case RoleVolunteer:
		p = &Volunteer{}
	case RoleNgo:
		p = &Ngo{}
	default:
		return nil, ErrNoProfile
	}
	if err := db.Where("user_id = ?", userID).First(p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoProfile
		}
		return nil, err
	}
	return p, nil
}
