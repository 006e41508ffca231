package services

import (
	"context"
	"errors"
	"time"

	"github.com/Govind-619/RentSphere/models"
	"github.com/Govind-619/RentSphere/notify"
	"github.com/Govind-619/RentSphere/store"
	"github.com/Govind-619/RentSphere/utils"
)

// maxAdmissionAttempts bounds retries of a booking transaction aborted by a concurrent writer
const maxAdmissionAttempts = 3

// BookingService admits bookings and drives their lifecycle
type BookingService struct {
	store        store.Store
	availability *AvailabilityChecker
	notifier     notify.Dispatcher
	now          func() time.Time
}

// BookingOption customizes a BookingService
type BookingOption func(*BookingService)

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) BookingOption {
	return func(s *BookingService) {
		s.now = now
	}
}

// NewBookingService wires the booking engine. A nil notifier discards events.
func NewBookingService(s store.Store, availability *AvailabilityChecker, notifier notify.Dispatcher, opts ...BookingOption) *BookingService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	svc := &BookingService{
		store:        s,
		availability: availability,
		notifier:     notifier,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// CreateBookingInput is a guest's request for a listing
type CreateBookingInput struct {
	ListingID string
	UserID    string
	StartDate time.Time
	EndDate   time.Time
}

// CreateBooking admits a PENDING booking when no active booking on the listing overlaps
// the requested range. Admission runs under the listing's row lock, so two concurrent
// requests for overlapping ranges cannot both succeed.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*models.Booking, error) {
	ctx, span := startSpan(ctx, "booking.create")
	defer span.End()

	start, end := in.StartDate.UTC(), in.EndDate.UTC()
	if !start.Before(end) {
		return nil, ErrInvalidRange
	}
	if start.Before(s.now()) {
		return nil, ErrPastStartDate
	}

	var (
		booking *models.Booking
		listing *models.Listing
		err     error
	)
	for attempt := 1; attempt <= maxAdmissionAttempts; attempt++ {
		booking, listing, err = s.admit(ctx, in.ListingID, in.UserID, start, end)
		if err == nil || !store.IsRetryable(err) {
			break
		}
		utils.LogWarn("Booking admission for listing %s aborted by a concurrent writer (attempt %d/%d): %v",
			in.ListingID, attempt, maxAdmissionAttempts, err)
	}
	if err != nil {
		switch {
		case utils.IsAppError(err):
		case store.IsRetryable(err), store.IsOverlapViolation(err):
			err = ErrSlotUnavailable.WithCause(err)
		default:
			utils.LogError("Failed to create booking on listing %s: %v", in.ListingID, err)
			err = utils.InternalError("Failed to create booking", err)
		}
		recordError(span, err)
		return nil, err
	}

	utils.LogInfo("Booking %s created on listing %s for user %s (%s to %s, total %d)",
		booking.ID, booking.ListingID, booking.UserID,
		booking.StartDate.Format(time.RFC3339), booking.EndDate.Format(time.RFC3339), booking.TotalAmount)

	booking.Listing = listing
	s.notifier.Notify(ctx, bookingEvent(notify.EventBookingCreated, booking))
	return booking, nil
}

func (s *BookingService) admit(ctx context.Context, listingID, userID string, start, end time.Time) (*models.Booking, *models.Listing, error) {
	var (
		booking *models.Booking
		listing *models.Listing
	)
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		l, err := tx.LockListing(listingID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrListingNotFound
			}
			return err
		}
		if !l.IsActive {
			return ErrListingInactive
		}

		available, err := s.availability.IsAvailable(ctx, tx, listingID, start, end)
		if err != nil {
			return err
		}
		if !available {
			return ErrSlotUnavailable
		}

		b := &models.Booking{
			ListingID:   listingID,
			UserID:      userID,
			StartDate:   start,
			EndDate:     end,
			TotalAmount: models.BillableDays(start, end) * l.PricePerDay,
			Status:      models.BookingStatusPending,
		}
		if err := tx.InsertBooking(b); err != nil {
			return err
		}
		booking, listing = b, l
		return nil
	})
	return booking, listing, err
}

// UpdateBookingStatus lets the listing owner or an admin confirm or cancel a booking.
// Cancelling a PAID booking flags it for refund.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, actor Actor, bookingID string, target models.BookingStatus) (*models.Booking, error) {
	ctx, span := startSpan(ctx, "booking.update_status")
	defer span.End()

	var (
		updated *models.Booking
		from    models.BookingStatus
	)
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		current, err := tx.LockBooking(bookingID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrBookingNotFound
			}
			return err
		}

		listing, err := tx.FindListing(current.ListingID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if !actor.canManage(listing) {
			return ErrForbidden
		}

		if !CanTransition(current.Status, target, TriggerManagerAction) {
			return ErrInvalidTransition
		}
		ok, err := tx.UpdateBookingStatus(bookingID, current.Status, target)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidTransition
		}
		if current.Status == models.BookingStatusPaid && target == models.BookingStatusCancelled {
			if err := tx.FlagRefund(bookingID); err != nil {
				return err
			}
		}

		from = current.Status
		updated, err = tx.FindBooking(bookingID)
		return err
	})
	if err != nil {
		if !utils.IsAppError(err) {
			utils.LogError("Failed to update booking %s to %s: %v", bookingID, target, err)
			err = utils.InternalError("Failed to update booking status", err)
		}
		recordError(span, err)
		return nil, err
	}

	utils.LogInfo("Booking %s moved from %s to %s by %s", bookingID, from, target, actor.ID)
	if updated.RefundRequired && from == models.BookingStatusPaid {
		utils.LogWarn("Booking %s cancelled after payment; refund required", bookingID)
	}
	s.notifier.Notify(ctx, bookingEvent(notify.EventBookingStatusChanged, updated))
	return updated, nil
}

// GetBooking returns a booking with its listing, guest and payment, if the actor may see it
func (s *BookingService) GetBooking(ctx context.Context, actor Actor, bookingID string) (*models.Booking, error) {
	booking, err := s.store.GetBookingDetails(ctx, bookingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		utils.LogError("Failed to load booking %s: %v", bookingID, err)
		return nil, utils.InternalError("Failed to fetch booking", err)
	}
	if !actor.canView(booking) {
		return nil, ErrForbidden
	}
	return booking, nil
}

// ListUserBookings pages through the bookings the actor made as a guest, newest first
func (s *BookingService) ListUserBookings(ctx context.Context, actor Actor, offset, limit int) ([]models.Booking, int64, error) {
	bookings, total, err := s.store.ListUserBookings(ctx, actor.ID, offset, limit)
	if err != nil {
		utils.LogError("Failed to list bookings for user %s: %v", actor.ID, err)
		return nil, 0, utils.InternalError("Failed to fetch bookings", err)
	}
	return bookings, total, nil
}

// ListOwnerBookings pages through bookings on the actor's listings. Admins see every booking.
func (s *BookingService) ListOwnerBookings(ctx context.Context, actor Actor, offset, limit int) ([]models.Booking, int64, error) {
	ownerID := actor.ID
	if actor.IsAdmin() {
		ownerID = ""
	}
	bookings, total, err := s.store.ListOwnerBookings(ctx, ownerID, offset, limit)
	if err != nil {
		utils.LogError("Failed to list owner bookings for %s: %v", actor.ID, err)
		return nil, 0, utils.InternalError("Failed to fetch bookings", err)
	}
	return bookings, total, nil
}

func bookingEvent(t notify.EventType, b *models.Booking) notify.Event {
	payload := notify.BookingPayload{
		BookingID:   b.ID,
		ListingID:   b.ListingID,
		UserID:      b.UserID,
		StartDate:   b.StartDate.UTC().Format(time.RFC3339),
		EndDate:     b.EndDate.UTC().Format(time.RFC3339),
		TotalAmount: b.TotalAmount,
		Status:      string(b.Status),
	}
	if b.Listing != nil {
		payload.ListingTitle = b.Listing.Title
		payload.OwnerID = b.Listing.OwnerID
	}
	return notify.Event{Type: t, Timestamp: time.Now().UTC(), Data: payload}
}
