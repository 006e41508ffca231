package config

import (
	"fmt"

	"github.com/Govind-619/RentSphere/models"
	"github.com/Govind-619/RentSphere/utils"
	"gorm.io/gorm"
)

// SeedDemoData creates an admin, an owner with one listing and a guest if they are
// missing, and logs a bearer token for each user. Development only.
func SeedDemoData(db *gorm.DB, jwtSecret string) error {
	utils.LogInfo("SeedDemoData called")

	users := []models.User{
		{Name: "Demo Admin", Email: "admin@rentsphere.local", Role: models.RoleAdmin},
		{Name: "Demo Owner", Email: "owner@rentsphere.local", Role: models.RoleOwner},
		{Name: "Demo Guest", Email: "guest@rentsphere.local", Role: models.RoleConsumer},
	}
	for i := range users {
		if err := db.FirstOrCreate(&users[i], models.User{Email: users[i].Email}).Error; err != nil {
			utils.LogError("Failed to seed user %s: %v", users[i].Email, err)
			return fmt.Errorf("seed user %s: %w", users[i].Email, err)
		}
	}
	owner := users[1]

	listing := models.Listing{
		OwnerID:     owner.ID,
		Title:       "Demo Lakeside Cabin",
		PricePerDay: 250000,
		IsActive:    true,
	}
	if err := db.FirstOrCreate(&listing, models.Listing{OwnerID: owner.ID, Title: listing.Title}).Error; err != nil {
		utils.LogError("Failed to seed listing: %v", err)
		return fmt.Errorf("seed listing: %w", err)
	}
	utils.LogInfo("Demo listing %s ready (owner %s)", listing.ID, owner.Email)

	if jwtSecret == "" {
		return nil
	}
	for _, u := range users {
		token, err := utils.GenerateToken(u.ID, u.Email, jwtSecret)
		if err != nil {
			return fmt.Errorf("token for %s: %w", u.Email, err)
		}
		utils.LogInfo("Demo %s %s token: %s", u.Role, u.Email, token)
	}
	return nil
}
