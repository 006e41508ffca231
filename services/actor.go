package services

import "github.com/Govind-619/RentSphere/models"

// Actor is the authenticated user on whose behalf an operation runs
type Actor struct {
	ID   string
	Role models.Role
}

// SystemActor is used by background jobs that act with administrator rights
var SystemActor = Actor{ID: "system", Role: models.RoleAdmin}

// IsAdmin reports whether the actor has the ADMIN role
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// canManage reports whether the actor may change the status of bookings on listing
func (a Actor) canManage(listing *models.Listing) bool {
	return a.IsAdmin() || (listing != nil && listing.OwnerID == a.ID)
}

// canView reports whether the actor may read booking
func (a Actor) canView(booking *models.Booking) bool {
	return a.IsAdmin() || booking.UserID == a.ID || a.canManage(booking.Listing)
}
