package repo

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/online_restaurant/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

// Migrate creates the schema and upserts the table capacity rows.
func Migrate(ctx context.Context, db *gorm.DB, capacities map[string]int) error {
	if err := db.WithContext(ctx).AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	rows := make([]models.TableCapacity, 0, len(capacities))
	for typ, capacity := range capacities {
		rows = append(rows, models.TableCapacity{TypeTable: typ, Capacity: capacity})
	}
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "type_table"}},
		DoUpdates: clause.AssignmentColumns([]string{"capacity"}),
	}).Create(&rows).Error
}
