package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the marketplace role of a user
type Role string

const (
	RoleConsumer Role = "CONSUMER"
	RoleOwner    Role = "OWNER"
	RoleAdmin    Role = "ADMIN"
)

// User represents a marketplace account. Accounts are managed by the auth service;
// this service only reads them to resolve the acting user and the listing owner.
type User struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name      string    `json:"name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Role      Role      `gorm:"type:varchar(16);not null;default:CONSUMER" json:"role"`
	IsBlocked bool      `json:"is_blocked" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID when the caller did not
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
