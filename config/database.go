package config

import (
	"fmt"

	"github.com/Govind-619/RentSphere/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the PostgreSQL connection and migrates the schema
func InitDB(cfg *Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{}
	if cfg.IsProduction() {
		gormCfg.Logger = logger.Default.LogMode(logger.Warn)
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the schema. On PostgreSQL it also installs the
// exclusion constraint that forbids overlapping active bookings per listing.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Listing{},
		&models.Booking{},
		&models.Payment{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %v", err)
	}

	if db.Dialector.Name() != "postgres" {
		return nil
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS btree_gist`).Error; err != nil {
		return fmt.Errorf("failed to enable btree_gist: %v", err)
	}

	var constraintExists bool
	err = db.Raw(`
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.table_constraints
			WHERE constraint_name = 'bookings_no_overlap'
		)
	`).Scan(&constraintExists).Error
	if err != nil {
		return fmt.Errorf("failed to check overlap constraint: %v", err)
	}

	if !constraintExists {
		// Closed ranges: touching endpoints conflict, matching the availability query.
		err = db.Exec(`
			ALTER TABLE bookings ADD CONSTRAINT bookings_no_overlap
			EXCLUDE USING gist (
				listing_id WITH =,
				tstzrange(start_date, end_date, '[]') WITH &&
			) WHERE (status IN ('PENDING', 'PAID', 'CONFIRMED'))
		`).Error
		if err != nil {
			return fmt.Errorf("failed to add overlap constraint: %v", err)
		}
	}
	return nil
}
