package store

import (
	"context"
	"time"

	"github.com/Govind-619/RentSphere/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements Store on top of gorm
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open gorm connection
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// WithinTx runs fn in a gorm transaction
func (s *GormStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

func (s *GormStore) FindUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) GetBookingDetails(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.WithContext(ctx).
		Preload("Listing.Owner").
		Preload("User").
		Preload("Payment").
		First(&booking, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &booking, nil
}

func (s *GormStore) ListUserBookings(ctx context.Context, userID string, offset, limit int) ([]models.Booking, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Booking{}).Where("user_id = ?", userID)
	return s.listBookings(query, offset, limit)
}

func (s *GormStore) ListOwnerBookings(ctx context.Context, ownerID string, offset, limit int) ([]models.Booking, int64, error) {
	db := s.db.WithContext(ctx)
	query := db.Model(&models.Booking{})
	if ownerID != "" {
		owned := db.Model(&models.Listing{}).Select("id").Where("owner_id = ?", ownerID)
		query = query.Where("listing_id IN (?)", owned)
	}
	return s.listBookings(query, offset, limit)
}

func (s *GormStore) listBookings(query *gorm.DB, offset, limit int) ([]models.Booking, int64, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var bookings []models.Booking
	err := query.Session(&gorm.Session{}).
		Preload("Listing").
		Preload("User").
		Preload("Payment").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (s *GormStore) ListStalePendingBookings(ctx context.Context, startedBefore time.Time, limit int) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.WithContext(ctx).
		Where("status = ? AND start_date < ?", models.BookingStatusPending, startedBefore.UTC()).
		Order("start_date ASC").
		Limit(limit).
		Find(&bookings).Error
	return bookings, err
}

func (s *GormStore) CreateUser(ctx context.Context, u *models.User) error {
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *GormStore) CreateListing(ctx context.Context, l *models.Listing) error {
	return s.db.WithContext(ctx).Create(l).Error
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) locked() *gorm.DB {
	return t.db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (t *gormTx) FindListing(id string) (*models.Listing, error) {
	var listing models.Listing
	if err := t.db.First(&listing, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &listing, nil
}

func (t *gormTx) LockListing(id string) (*models.Listing, error) {
	var listing models.Listing
	if err := t.locked().First(&listing, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &listing, nil
}

func (t *gormTx) FindConflictingBookings(listingID string, start, end time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := t.db.
		Where("listing_id = ? AND status IN ?", listingID, models.ActiveBookingStatuses).
		Where("start_date <= ? AND end_date >= ?", end.UTC(), start.UTC()).
		Order("start_date ASC").
		Find(&bookings).Error
	return bookings, err
}

func (t *gormTx) InsertBooking(b *models.Booking) error {
	b.StartDate = b.StartDate.UTC()
	b.EndDate = b.EndDate.UTC()
	return t.db.Omit(clause.Associations).Create(b).Error
}

func (t *gormTx) FindBooking(id string) (*models.Booking, error) {
	var booking models.Booking
	if err := t.db.Preload("Listing").First(&booking, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &booking, nil
}

func (t *gormTx) LockBooking(id string) (*models.Booking, error) {
	var booking models.Booking
	if err := t.locked().First(&booking, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &booking, nil
}

func (t *gormTx) UpdateBookingStatus(id string, from, to models.BookingStatus) (bool, error) {
	res := t.db.Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (t *gormTx) FlagRefund(id string) error {
	return t.db.Model(&models.Booking{}).
		Where("id = ?", id).
		Update("refund_required", true).Error
}

func (t *gormTx) FindPaymentByBooking(bookingID string) (*models.Payment, error) {
	var payment models.Payment
	if err := t.db.First(&payment, "booking_id = ?", bookingID).Error; err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}

func (t *gormTx) UpsertPayment(p *models.Payment) (*models.Payment, error) {
	var existing models.Payment
	err := t.locked().First(&existing, "booking_id = ?", p.BookingID).Error
	switch {
	case err == nil:
		res := t.db.Model(&models.Payment{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"provider":            p.Provider,
				"provider_payment_id": p.ProviderPaymentID,
				"status":              p.Status,
				"amount":              p.Amount,
				"currency":            p.Currency,
				"is_placeholder":      p.IsPlaceholder,
			})
		if res.Error != nil {
			return nil, res.Error
		}
		return t.FindPaymentByBooking(p.BookingID)
	case translate(err) == ErrNotFound:
		created := *p
		created.ID = ""
		if err := t.db.Create(&created).Error; err != nil {
			return nil, err
		}
		return &created, nil
	default:
		return nil, err
	}
}

func (t *gormTx) FindPaymentByProviderRef(provider models.PaymentProvider, ref string) (*models.Payment, error) {
	var payment models.Payment
	err := t.db.
		Where("provider = ? AND provider_payment_id = ?", provider, ref).
		First(&payment).Error
	if err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}

func (t *gormTx) LockPayment(id string) (*models.Payment, error) {
	var payment models.Payment
	if err := t.locked().First(&payment, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}

func (t *gormTx) UpdatePaymentStatus(id string, to models.PaymentStatus, from ...models.PaymentStatus) (bool, error) {
	query := t.db.Model(&models.Payment{}).Where("id = ?", id)
	if len(from) > 0 {
		query = query.Where("status IN ?", from)
	}
	res := query.Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
