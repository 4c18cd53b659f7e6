package persistence

import (
	"fmt"

	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// AutoMigrate creates the catalog tables from the persistence models
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate catalog: %w", err)
	}
	return nil
}
