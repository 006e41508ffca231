package services

import "github.com/Govind-619/RentSphere/utils"

// Failures returned by the booking and payment services. Compare with errors.Is.
var (
	ErrInvalidRange        = utils.ValidationFailure("InvalidRange", "End date must be after start date")
	ErrPastStartDate       = utils.ValidationFailure("PastStartDate", "Start date cannot be in the past")
	ErrListingNotFound     = utils.NotFoundFailure("ListingNotFound", "Listing not found")
	ErrListingInactive     = utils.ValidationFailure("ListingInactive", "Listing is not accepting bookings")
	ErrSlotUnavailable     = utils.ConflictFailure("SlotUnavailable", "Listing is not available for the selected dates")
	ErrBookingNotFound     = utils.NotFoundFailure("BookingNotFound", "Booking not found")
	ErrForbidden           = utils.ForbiddenFailure("Forbidden", "Not authorized to modify this booking")
	ErrInvalidTransition   = utils.ValidationFailure("InvalidTransition", "Booking cannot move to the requested status")
	ErrInvalidState        = utils.ValidationFailure("InvalidState", "Booking is not in pending status")
	ErrAlreadyPaid         = utils.ConflictFailure("AlreadyPaid", "Payment already completed")
	ErrUnsupportedProvider = utils.ValidationFailure("UnsupportedProvider", "Unsupported payment provider")
	ErrSignatureInvalid    = utils.SignatureFailure("SignatureInvalid", "Webhook signature verification failed")
)
