package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/medibook/scheduling/internal/config"
	"github.com/medibook/scheduling/internal/domain/booking"
)

func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		PrepareStmt:                              true,
		DisableForeignKeyConstraintWhenMigrating: false,
		DisableAutomaticPing:                     false,
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: false,
	}), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	start := time.Now()

	if err := db.Exec("CREATE SCHEMA IF NOT EXISTS scheduling").Error; err != nil {
		return fmt.Errorf("creating schema scheduling: %w", err)
	}

	if err := db.AutoMigrate(&booking.Booking{}); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}

	log.Info("migrations completed", zap.Duration("duration", time.Since(start)))
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []struct {
		name  string
		query string
	}{
		// The partial unique index is the storage-level backstop for the
		// no-double-booking invariant: two live bookings can never share
		// doctor, day and start time, whatever the application does.
		{
			name:  "uq_bookings_live_slot",
			query: `CREATE UNIQUE INDEX IF NOT EXISTS uq_bookings_live_slot ON scheduling.bookings (doctor_id, day, start_time) WHERE deleted_at IS NULL AND status IN ('pending', 'confirmed')`,
		},
		{
			name:  "idx_bookings_doctor_day_live",
			query: `CREATE INDEX IF NOT EXISTS idx_bookings_doctor_day_live ON scheduling.bookings (doctor_id, day) WHERE deleted_at IS NULL AND status IN ('pending', 'confirmed')`,
		},
		{
			name:  "idx_bookings_patient",
			query: `CREATE INDEX IF NOT EXISTS idx_bookings_patient ON scheduling.bookings (patient_id, day) WHERE deleted_at IS NULL`,
		},
	}

	for _, idx := range indexes {
		if err := db.Exec(idx.query).Error; err != nil {
			return fmt.Errorf("creating index %s: %w", idx.name, err)
		}
	}

	return nil
}
