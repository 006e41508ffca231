package utils

// Application constants
const (
	// Application name
	AppName = "RentSphere"

	// API version
	APIVersion = "v1"

	// Default port
	DefaultPort = "8080"

	// DateLayout is the date-only form accepted for booking dates
	DateLayout = "2006-01-02"

	// Maximum length of an identifier taken from a path or body
	MaxIDLength = 64
)

// Error messages
const (
	ErrInvalidToken   = "Invalid or expired token"
	ErrUnauthorized   = "Please login for access"
	ErrInvalidRequest = "Invalid request body"
	ErrInvalidDate    = "Dates must be RFC 3339 timestamps or YYYY-MM-DD"
	ErrInternalServer = "Internal server error"
)

// Success messages
const (
	MsgBookingCreated     = "Booking created successfully"
	MsgBookingUpdated     = "Booking status updated successfully"
	MsgBookingsRetrieved  = "Bookings retrieved successfully"
	MsgPaymentInitiated   = "Payment initiated successfully"
	MsgWebhookReceived    = "Webhook received"
	MsgAvailabilityResult = "Availability checked successfully"
)
