package services

import (
	"context"
	"fmt"

	"github.com/localnerve/dbreview/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/hints"
)

// FindByClassification returns every database record at the given level, in storage order
func FindByClassification(ctx context.Context, db *gorm.DB, level models.Classification) ([]models.DatabaseRecord, error) {
	if !level.Valid() {
		return nil, fmt.Errorf("invalid classification: %d", int(level))
	}

	records := make([]models.DatabaseRecord, 0)
	err := db.WithContext(ctx).
		Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Clauses(hints.Comment("select", "find_by_classification")).
		Where("classification = ?", level).
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	return records, nil
}

// FindUnclassified returns records still awaiting review
func FindUnclassified(ctx context.Context, db *gorm.DB) ([]models.DatabaseRecord, error) {
	return FindByClassification(ctx, db, models.Unclassified)
}

// FindHighClassification returns records whose owner's manager must be notified
func FindHighClassification(ctx context.Context, db *gorm.DB) ([]models.DatabaseRecord, error) {
	return FindByClassification(ctx, db, models.High)
}
