// Package store is the transactional resource store for listings, bookings and payments.
package store

import (
	"context"
	"time"

	"github.com/Govind-619/RentSphere/models"
)

// Store is the entry point to the resource store. Every mutation of booking or
// payment state happens inside WithinTx.
type Store interface {
	// WithinTx runs fn in one database transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	FindUser(ctx context.Context, id string) (*models.User, error)
	GetBookingDetails(ctx context.Context, id string) (*models.Booking, error)
	ListUserBookings(ctx context.Context, userID string, offset, limit int) ([]models.Booking, int64, error)
	// ListOwnerBookings lists bookings on listings owned by ownerID; an empty ownerID lists all.
	ListOwnerBookings(ctx context.Context, ownerID string, offset, limit int) ([]models.Booking, int64, error)
	ListStalePendingBookings(ctx context.Context, startedBefore time.Time, limit int) ([]models.Booking, error)

	CreateUser(ctx context.Context, u *models.User) error
	CreateListing(ctx context.Context, l *models.Listing) error
}

// Tx is a transaction-scoped handle. It must not be used after the WithinTx callback returns.
type Tx interface {
	FindListing(id string) (*models.Listing, error)
	// LockListing reads the listing and holds a row lock on it until the transaction ends.
	// Booking admission uses it as the per-listing conflict-range lock.
	LockListing(id string) (*models.Listing, error)
	// FindConflictingBookings returns active bookings whose closed interval meets [start, end].
	FindConflictingBookings(listingID string, start, end time.Time) ([]models.Booking, error)
	InsertBooking(b *models.Booking) error

	FindBooking(id string) (*models.Booking, error)
	LockBooking(id string) (*models.Booking, error)
	// UpdateBookingStatus moves the booking from one status to another and reports whether
	// the row was still in the expected status.
	UpdateBookingStatus(id string, from, to models.BookingStatus) (bool, error)
	FlagRefund(id string) error

	FindPaymentByBooking(bookingID string) (*models.Payment, error)
	// UpsertPayment writes the single payment row of p.BookingID, replacing the provider
	// reference of an existing row.
	UpsertPayment(p *models.Payment) (*models.Payment, error)
	// FindPaymentByProviderRef looks up the payment for a provider reference without locking it.
	FindPaymentByProviderRef(provider models.PaymentProvider, ref string) (*models.Payment, error)
	// LockPayment re-reads the payment and holds a row lock on it until the transaction ends.
	// Callers lock the owning booking first: booking rows are always locked before payment rows.
	LockPayment(id string) (*models.Payment, error)
	// UpdatePaymentStatus sets status to `to` only if the current status is one of from.
	UpdatePaymentStatus(id string, to models.PaymentStatus, from ...models.PaymentStatus) (bool, error)
}
