package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/piyushmishra0/Modex-System/internal/inventory"
)

// Migrate creates the inventory tables and the constraints GORM tags cannot express
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&inventory.Show{},
		&inventory.Seat{},
		&inventory.Booking{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return MigrateConstraints(db)
}
