package routes

import (
	"github.com/Govind-619/RentSphere/controllers"
	"github.com/Govind-619/RentSphere/middleware"
	"github.com/Govind-619/RentSphere/utils"
	"github.com/gin-gonic/gin"
)

// Dependencies are the handlers and services the router mounts
type Dependencies struct {
	Users     middleware.UserFinder
	JWTSecret string
	Bookings  *controllers.BookingController
	Listings  *controllers.ListingController
	Payments  *controllers.PaymentController
	DB        controllers.Pinger
}

// SetupRouter initializes and returns the Gin router with all routes
func SetupRouter(deps Dependencies) *gin.Engine {
	router := gin.New()

	router.Use(utils.RequestIDMiddleware())
	router.Use(utils.LoggerMiddleware())
	router.Use(utils.RecoveryMiddleware())
	router.Use(utils.SecurityHeadersMiddleware())

	router.GET("/health", controllers.HealthCheck(deps.DB))

	// API version group
	api := router.Group("/" + utils.APIVersion)
	{
		auth := middleware.AuthMiddleware(deps.Users, deps.JWTSecret)

		initBookingRoutes(api, auth, deps.Bookings)
		initListingRoutes(api, deps.Listings)
		initPaymentRoutes(api, auth, deps.Payments)
	}

	router.NoRoute(func(c *gin.Context) {
		utils.NotFound(c, "Route not found")
	})

	return router
}
