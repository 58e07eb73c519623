package infra

import (
	"fmt"

	"staffhub/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// for all tables, then applies the idempotent SQL patches GORM cannot express
// (partial unique indexes, the overlap exclusion constraint).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// RunMigrations applies AutoMigrate plus the raw schema patches. Exported so
// integration tests can migrate their containerized database the same way.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Venue{},
		&model.Membership{},
		&model.TimeOffRequest{},
		&model.Schedule{},
		&model.ScheduleEntry{},
		&model.AuditLog{},
		&model.Notification{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot produce.
// Each statement is guarded so re-running on an already-patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// At most one primary membership per user. A plain unique index on
		// (user_id, is_primary) would also forbid multiple non-primary rows,
		// hence the partial index.
		{"unique primary membership per user", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uniq_primary_membership') THEN
    CREATE UNIQUE INDEX uniq_primary_membership
        ON memberships (user_id)
        WHERE is_primary = true;
  END IF;
END $$`},

		// Database-enforced guard for the create-time overlap check: no two
		// PENDING/APPROVED requests of one user may hold intersecting
		// inclusive date ranges. This closes the race where two concurrent
		// transactions both see no conflicting rows and insert.
		{"btree_gist extension", `CREATE EXTENSION IF NOT EXISTS btree_gist`},
		{"time-off overlap exclusion constraint", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'timeoff_no_overlap') THEN
    ALTER TABLE time_off_requests
      ADD CONSTRAINT timeoff_no_overlap
      EXCLUDE USING gist (
        user_id WITH =,
        daterange(start_date, end_date, '[]') WITH &&
      )
      WHERE (status IN ('PENDING', 'APPROVED'));
  END IF;
END $$`},

		// Partial index backing the retry cron query over stuck notifications.
		{"pending notification retry index", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_notifications_pending_retry') THEN
    CREATE INDEX idx_notifications_pending_retry
        ON notifications (next_retry_at)
        WHERE status = 'PENDING' AND next_retry_at IS NOT NULL;
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("schema patch %q: %w", p.descr, err)
		}
	}
	return nil
}
