package services

import "github.com/Govind-619/RentSphere/models"

// Trigger is what drives a booking status change
type Trigger string

const (
	// TriggerPaymentSucceeded is a verified provider event settling the booking's payment
	TriggerPaymentSucceeded Trigger = "payment_succeeded"
	// TriggerManagerAction is the listing owner or an admin acting on the booking
	TriggerManagerAction Trigger = "manager_action"
)

// Allowed edges of the booking state machine. Nothing leads back to PENDING;
// CONFIRMED and CANCELLED are terminal.
var bookingTransitions = map[models.BookingStatus]map[models.BookingStatus]Trigger{
	models.BookingStatusPending: {
		models.BookingStatusPaid:      TriggerPaymentSucceeded,
		models.BookingStatusCancelled: TriggerManagerAction,
	},
	models.BookingStatusPaid: {
		models.BookingStatusConfirmed: TriggerManagerAction,
		models.BookingStatusCancelled: TriggerManagerAction,
	},
}

// CanTransition reports whether trigger may move a booking from one status to another
func CanTransition(from, to models.BookingStatus, trigger Trigger) bool {
	edges, ok := bookingTransitions[from]
	if !ok {
		return false
	}
	want, ok := edges[to]
	return ok && want == trigger
}

// IsTerminal reports whether no transition leaves status
func IsTerminal(status models.BookingStatus) bool {
	return len(bookingTransitions[status]) == 0
}
