package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Listing is a rentable item or venue. Listing CRUD lives in the catalogue service;
// bookings only read the owner, price and active flag.
type Listing struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	OwnerID     string    `gorm:"type:varchar(36);index;not null" json:"owner_id"`
	Owner       *User     `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Title       string    `json:"title"`
	PricePerDay int64     `gorm:"not null" json:"price_per_day"` // smallest currency unit
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID when the caller did not
func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
