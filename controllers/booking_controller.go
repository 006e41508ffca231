package controllers

import (
	"strings"

	"github.com/Govind-619/RentSphere/middleware"
	"github.com/Govind-619/RentSphere/models"
	"github.com/Govind-619/RentSphere/services"
	"github.com/Govind-619/RentSphere/utils"
	"github.com/gin-gonic/gin"
)

// BookingController serves the booking endpoints
type BookingController struct {
	bookings *services.BookingService
}

// NewBookingController creates the booking handlers
func NewBookingController(bookings *services.BookingService) *BookingController {
	return &BookingController{bookings: bookings}
}

// CreateBookingRequest is the body of POST /v1/bookings
type CreateBookingRequest struct {
	ListingID string `json:"listingId" binding:"required"`
	StartDate string `json:"startDate" binding:"required"`
	EndDate   string `json:"endDate" binding:"required"`
}

// UpdateBookingStatusRequest is the body of PATCH /v1/bookings/:id/status
type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// POST /v1/bookings
func (bc *BookingController) CreateBooking(c *gin.Context) {
	utils.LogInfo("CreateBooking called")
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid booking request: %v", err)
		utils.BadRequest(c, utils.ErrInvalidRequest, err.Error())
		return
	}
	if valid, msg := utils.ValidateID(req.ListingID); !valid {
		utils.BadRequest(c, utils.ErrInvalidRequest, "listingId "+msg)
		return
	}
	start, end, err := utils.ParseDateRange("startDate", req.StartDate, "endDate", req.EndDate)
	if err != nil {
		utils.BadRequest(c, utils.ErrInvalidDate, err)
		return
	}

	booking, err := bc.bookings.CreateBooking(c.Request.Context(), services.CreateBookingInput{
		ListingID: req.ListingID,
		UserID:    actor.ID,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		utils.LogError("Booking on listing %s rejected for user %s: %v", req.ListingID, actor.ID, err)
		utils.RespondError(c, err)
		return
	}

	utils.Created(c, utils.MsgBookingCreated, booking)
}

// GET /v1/bookings/me
func (bc *BookingController) GetMyBookings(c *gin.Context) {
	utils.LogInfo("GetMyBookings called")
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	pagination := utils.NewPagination(c)
	bookings, total, err := bc.bookings.ListUserBookings(c.Request.Context(), actor, pagination.Offset, pagination.Limit)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	pagination.SetTotal(total)
	utils.LogDebug("Retrieved %d of %d bookings for user %s", len(bookings), total, actor.ID)
	utils.SendPaginatedResponse(c, utils.MsgBookingsRetrieved, bookings, pagination)
}

// GET /v1/bookings/owner
func (bc *BookingController) GetOwnerBookings(c *gin.Context) {
	utils.LogInfo("GetOwnerBookings called")
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	pagination := utils.NewPagination(c)
	bookings, total, err := bc.bookings.ListOwnerBookings(c.Request.Context(), actor, pagination.Offset, pagination.Limit)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	pagination.SetTotal(total)
	utils.SendPaginatedResponse(c, utils.MsgBookingsRetrieved, bookings, pagination)
}

// GET /v1/bookings/:id
func (bc *BookingController) GetBooking(c *gin.Context) {
	utils.LogInfo("GetBooking called")
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	bookingID, ok := pathID(c)
	if !ok {
		return
	}

	booking, err := bc.bookings.GetBooking(c.Request.Context(), actor, bookingID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Booking retrieved successfully", booking)
}

// PATCH /v1/bookings/:id/status
func (bc *BookingController) UpdateBookingStatus(c *gin.Context) {
	utils.LogInfo("UpdateBookingStatus called")
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	bookingID, ok := pathID(c)
	if !ok {
		return
	}

	var req UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid status update request: %v", err)
		utils.BadRequest(c, utils.ErrInvalidRequest, err.Error())
		return
	}
	target := models.BookingStatus(strings.ToUpper(strings.TrimSpace(req.Status)))

	booking, err := bc.bookings.UpdateBookingStatus(c.Request.Context(), actor, bookingID, target)
	if err != nil {
		utils.LogError("Status update of booking %s to %s by %s rejected: %v", bookingID, target, actor.ID, err)
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, utils.MsgBookingUpdated, booking)
}

func requireActor(c *gin.Context) (services.Actor, bool) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		utils.LogError("Actor not found in context")
		utils.Unauthorized(c, utils.ErrUnauthorized)
		return services.Actor{}, false
	}
	return actor, true
}

func pathID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if valid, msg := utils.ValidateID(id); !valid {
		utils.BadRequest(c, "Invalid id", "id "+msg)
		return "", false
	}
	return id, true
}
