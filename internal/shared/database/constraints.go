package database

import (
	"fmt"

	"gorm.io/gorm"
)

// foreign keys are added by hand because AutoMigrate runs with them disabled
var foreignKeys = []struct {
	table, name, definition string
}{
	{"events", "fk_events_organizer", "FOREIGN KEY (organizer_id) REFERENCES users(id) ON DELETE RESTRICT"},
	{"bookings", "fk_bookings_user", "FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE"},
	{"bookings", "fk_bookings_event", "FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE RESTRICT"},
	{"inventory_movements", "fk_movements_event", "FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE"},
	{"comments", "fk_comments_event", "FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE"},
	{"comments", "fk_comments_user", "FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE"},
}

// MigrateConstraints adds the Postgres-only constraints and indexes. Other dialects are skipped.
func MigrateConstraints(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}

	for _, fk := range foreignKeys {
		stmt := fmt.Sprintf(`
			DO $$
			BEGIN
				IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN
					ALTER TABLE %s ADD CONSTRAINT %s %s;
				END IF;
			END $$;`, fk.name, fk.table, fk.name, fk.definition)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("add constraint %s: %w", fk.name, err)
		}
	}

	// stale-claim scan and pending expiry both filter on status + age
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_pending_created
		ON bookings (created_at) WHERE status = 'pending';
	`).Error; err != nil {
		return fmt.Errorf("create pending index: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_confirmed_at
		ON bookings (confirmed_at) WHERE status = 'confirmed';
	`).Error; err != nil {
		return fmt.Errorf("create confirmed index: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_movements_event_reference
		ON inventory_movements (event_id, reference);
	`).Error; err != nil {
		return fmt.Errorf("create movement index: %w", err)
	}

	return nil
}
