package database

import (
	"fmt"

	"eventhub/internal/bookings"
	"eventhub/internal/comments"
	"eventhub/internal/events"
	"eventhub/internal/inventory"
	"eventhub/internal/users"

	"gorm.io/gorm"
)

// Models lists every table the service owns, in dependency order
func Models() []interface{} {
	return []interface{}{
		&users.User{},
		&events.Event{},
		&bookings.Booking{},
		&inventory.Movement{},
		&inventory.CompensationTask{},
		&comments.Comment{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return MigrateConstraints(db)
}
