package repository

import (
	"context"

	"neurothrive/internal/models"

	"gorm.io/gorm"
)

type ScreeningRepository struct {
	db *gorm.DB
}

func NewScreeningRepository(db *gorm.DB) *ScreeningRepository {
	return &ScreeningRepository{db: db}
}

func (r *ScreeningRepository) SaveScreening(ctx context.Context, log *models.ScreeningLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// ListScreenings returns the newest screenings across all uploaders.
func (r *ScreeningRepository) ListScreenings(ctx context.Context, limit int) ([]models.ScreeningLog, error) {
	var logs []models.ScreeningLog
	q := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&logs).Error
	return logs, err
}
