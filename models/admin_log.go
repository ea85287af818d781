package models

import "time"

// AdminLog is an append-only audit row written on every admin mutation.
// Rows are never updated or deleted.
type AdminLog struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	AdminID    uint      `json:"admin_id" gorm:"not null"`
	Admin      User      `json:"admin,omitempty" gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE"`
	Action     string    `json:"action" gorm:"not null"`
	TargetType string    `json:"target_type"`
	TargetID   uint      `json:"target_id"`
	Details    string    `json:"details"`
	IPAddress  string    `json:"ip_address"`
	RequestID  string    `json:"request_id"`
	CreatedAt  time.Time `json:"created_at"`
}
