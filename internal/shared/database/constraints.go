package database

import (
	"fmt"

	"gorm.io/gorm"
)

// addConstraint wraps ALTER TABLE ... ADD CONSTRAINT so reruns are no-ops
func addConstraint(name, table, definition string) string {
	return fmt.Sprintf(`
		DO $$
		BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN
				ALTER TABLE %s ADD CONSTRAINT %s %s;
			END IF;
		END
		$$;`, name, table, name, definition)
}

// constraintStatements are applied in order after AutoMigrate
var constraintStatements = []string{
	// A show's seats and bookings go with it
	addConstraint("fk_seats_show", "seats",
		"FOREIGN KEY (show_id) REFERENCES shows(id) ON DELETE CASCADE"),
	addConstraint("fk_bookings_show", "bookings",
		"FOREIGN KEY (show_id) REFERENCES shows(id) ON DELETE CASCADE"),

	// locked_until is set iff the seat is PENDING
	addConstraint("chk_seats_lease", "seats",
		"CHECK ((status = 'PENDING') = (locked_until IS NOT NULL))"),
	addConstraint("chk_seats_holder", "seats",
		"CHECK ((status = 'PENDING') = (hold_id IS NOT NULL))"),

	// The counter can never exceed the seat count
	addConstraint("chk_shows_available_le_total", "shows",
		"CHECK (available_seats <= total_seats)"),

	// Reaper predicates only ever scan PENDING rows
	`CREATE INDEX IF NOT EXISTS idx_seats_pending_locked_until
		ON seats (locked_until) WHERE status = 'PENDING';`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_pending_expires_at
		ON bookings (expires_at) WHERE status = 'PENDING';`,
}

// MigrateConstraints adds the database constraints backing the seat invariants
func MigrateConstraints(db *gorm.DB) error {
	for _, stmt := range constraintStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to apply constraint: %w", err)
		}
	}
	return nil
}
