// Package storetest provides an in-memory SQLite store and fixtures for tests.
package storetest

import (
	"testing"
	"time"

	"github.com/Govind-619/RentSphere/config"
	"github.com/Govind-619/RentSphere/models"
	"github.com/Govind-619/RentSphere/store"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a migrated in-memory database and a store on top of it. The pool is
// limited to one connection, so concurrent transactions run one after another.
func Open(t *testing.T) (*gorm.DB, *store.GormStore) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	return db, store.NewGormStore(db)
}

// User inserts a user with role
func User(t *testing.T, db *gorm.DB, role models.Role) *models.User {
	t.Helper()
	u := &models.User{Name: string(role) + " user", Role: role}
	u.BeforeCreate(db)
	u.Email = u.ID + "@example.com"
	require.NoError(t, db.Create(u).Error)
	return u
}

// Listing inserts an active listing owned by ownerID
func Listing(t *testing.T, db *gorm.DB, ownerID string, pricePerDay int64) *models.Listing {
	t.Helper()
	l := &models.Listing{OwnerID: ownerID, Title: "Test Listing", PricePerDay: pricePerDay, IsActive: true}
	require.NoError(t, db.Create(l).Error)
	return l
}

// Deactivate marks a listing inactive. The column defaults to true, so a zero value
// at create time would be replaced.
func Deactivate(t *testing.T, db *gorm.DB, listing *models.Listing) {
	t.Helper()
	require.NoError(t, db.Model(&models.Listing{}).Where("id = ?", listing.ID).Update("is_active", false).Error)
	listing.IsActive = false
}

// Booking inserts a booking directly, bypassing admission
func Booking(t *testing.T, db *gorm.DB, listing *models.Listing, userID string, start, end time.Time, status models.BookingStatus) *models.Booking {
	t.Helper()
	b := &models.Booking{
		ListingID:   listing.ID,
		UserID:      userID,
		StartDate:   start.UTC(),
		EndDate:     end.UTC(),
		TotalAmount: models.BillableDays(start, end) * listing.PricePerDay,
		Status:      status,
	}
	require.NoError(t, db.Omit("Listing", "User", "Payment").Create(b).Error)
	return b
}

// Day returns midnight UTC of the given day
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
