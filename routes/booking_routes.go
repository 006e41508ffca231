package routes

import (
	"github.com/Govind-619/RentSphere/controllers"
	"github.com/Govind-619/RentSphere/middleware"
	"github.com/Govind-619/RentSphere/models"
	"github.com/gin-gonic/gin"
)

// initBookingRoutes initializes all booking routes; every one requires a login
func initBookingRoutes(router *gin.RouterGroup, auth gin.HandlerFunc, bc *controllers.BookingController) {
	bookings := router.Group("/bookings")
	bookings.Use(auth)
	{
		bookings.POST("", bc.CreateBooking)
		bookings.GET("/me", bc.GetMyBookings)
		bookings.GET("/my", bc.GetMyBookings)

		// Owner routes
		owner := bookings.Group("/owner")
		owner.Use(middleware.RequireRoles(models.RoleOwner, models.RoleAdmin))
		{
			owner.GET("", bc.GetOwnerBookings)
			owner.GET("/export", bc.ExportOwnerBookings)
		}

		bookings.GET("/:id", bc.GetBooking)
		bookings.GET("/:id/receipt", bc.DownloadReceipt)
		bookings.PATCH("/:id/status", bc.UpdateBookingStatus)
	}
}

// initListingRoutes initializes the public listing routes
func initListingRoutes(router *gin.RouterGroup, lc *controllers.ListingController) {
	listings := router.Group("/listings")
	{
		listings.GET("/:id/availability", lc.CheckAvailability)
		listings.GET("/:id/events", lc.ListingEvents)
	}
}
