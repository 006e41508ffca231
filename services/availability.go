package services

import (
	"context"
	"time"

	"github.com/Govind-619/RentSphere/models"
	"github.com/Govind-619/RentSphere/store"
	"github.com/Govind-619/RentSphere/utils"
)

// AvailabilityChecker decides whether a listing is free for a date range.
//
// Two ranges conflict when existing.start <= new.end and existing.end >= new.start, so
// touching endpoints count as a conflict. Only PENDING, PAID and CONFIRMED bookings
// hold dates. Booking admission calls it with the transaction that inserts the booking.
type AvailabilityChecker struct {
	store store.Store
}

// NewAvailabilityChecker creates a checker backed by s
func NewAvailabilityChecker(s store.Store) *AvailabilityChecker {
	return &AvailabilityChecker{store: s}
}

// FindConflicts returns the active bookings on listingID that collide with [start, end]
func (a *AvailabilityChecker) FindConflicts(ctx context.Context, tx store.Tx, listingID string, start, end time.Time) ([]models.Booking, error) {
	_, span := startSpan(ctx, "availability.find_conflicts")
	defer span.End()

	conflicts, err := tx.FindConflictingBookings(listingID, start, end)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	return conflicts, nil
}

// IsAvailable reports whether no active booking collides with [start, end]
func (a *AvailabilityChecker) IsAvailable(ctx context.Context, tx store.Tx, listingID string, start, end time.Time) (bool, error) {
	conflicts, err := a.FindConflicts(ctx, tx, listingID, start, end)
	if err != nil {
		return false, err
	}
	return len(conflicts) == 0, nil
}

// Availability is the answer to a public availability query
type Availability struct {
	ListingID string           `json:"listing_id"`
	StartDate time.Time        `json:"start_date"`
	EndDate   time.Time        `json:"end_date"`
	Available bool             `json:"available"`
	Conflicts []ConflictWindow `json:"conflicts"`
}

// ConflictWindow is the part of a requested range already held by a booking
type ConflictWindow struct {
	BookingID    string    `json:"booking_id"`
	OverlapStart time.Time `json:"overlap_start"`
	OverlapEnd   time.Time `json:"overlap_end"`
}

// CheckAvailability answers an availability query in its own read transaction.
// The answer is advisory; admission re-checks under the listing lock.
func (a *AvailabilityChecker) CheckAvailability(ctx context.Context, listingID string, start, end time.Time) (*Availability, error) {
	start, end = start.UTC(), end.UTC()
	if !start.Before(end) {
		return nil, ErrInvalidRange
	}

	result := &Availability{ListingID: listingID, StartDate: start, EndDate: end}
	err := a.store.WithinTx(ctx, func(tx store.Tx) error {
		if _, err := tx.FindListing(listingID); err != nil {
			if err == store.ErrNotFound {
				return ErrListingNotFound
			}
			return err
		}

		conflicts, err := a.FindConflicts(ctx, tx, listingID, start, end)
		if err != nil {
			return err
		}
		result.Conflicts = overlapWindows(conflicts, start, end)
		result.Available = len(conflicts) == 0
		return nil
	})
	if err != nil {
		if utils.IsAppError(err) {
			return nil, err
		}
		utils.LogError("Availability check failed for listing %s: %v", listingID, err)
		return nil, utils.InternalError("Failed to check availability", err)
	}
	return result, nil
}

func overlapWindows(bookings []models.Booking, start, end time.Time) []ConflictWindow {
	windows := make([]ConflictWindow, 0, len(bookings))
	for _, b := range bookings {
		from := start
		if b.StartDate.After(from) {
			from = b.StartDate
		}
		to := end
		if b.EndDate.Before(to) {
			to = b.EndDate
		}
		windows = append(windows, ConflictWindow{
			BookingID:    b.ID,
			OverlapStart: from.UTC(),
			OverlapEnd:   to.UTC(),
		})
	}
	return windows
}
