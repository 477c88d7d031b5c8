package repository

import (
	"context"
	"time"

	"neurothrive/internal/models"

	"gorm.io/gorm"
)

type MonitoringRepository struct {
	db *gorm.DB
}

func NewMonitoringRepository(db *gorm.DB) *MonitoringRepository {
	return &MonitoringRepository{db: db}
}

// RecentCheckins returns up to n of the patient's check-ins, newest first.
func (r *MonitoringRepository) RecentCheckins(ctx context.Context, patientID uint, n int) ([]models.DailyCheckin, error) {
	var rows []models.DailyCheckin
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("checkin_date DESC, id DESC").
		Limit(n).
		Find(&rows).Error
	return rows, err
}

// SaveCheckin stores the check-in and, when event is non-nil, the crisis
// event it raised, in one transaction.
func (r *MonitoringRepository) SaveCheckin(ctx context.Context, checkin *models.DailyCheckin, event *models.CrisisEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(checkin).Error; err != nil {
			return err
		}
		if event == nil {
			return nil
		}
		event.PatientID = checkin.PatientID
		event.CheckinID = &checkin.ID
		return tx.Create(event).Error
	})
}

// CheckinsSince returns the patient's check-ins on or after since, newest first.
func (r *MonitoringRepository) CheckinsSince(ctx context.Context, patientID uint, since time.Time) ([]models.DailyCheckin, error) {
	var rows []models.DailyCheckin
	err := r.db.WithContext(ctx).
		Where("patient_id = ? AND checkin_date >= ?", patientID, since).
		Order("checkin_date DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *MonitoringRepository) LatestCheckin(ctx context.Context, patientID uint) (*models.DailyCheckin, error) {
	var row models.DailyCheckin
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("checkin_date DESC, id DESC").
		First(&row).Error
	return &row, notFound(err)
}

func (r *MonitoringRepository) ListCrisisEvents(ctx context.Context, patientID uint) ([]models.CrisisEvent, error) {
	var rows []models.CrisisEvent
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *MonitoringRepository) CountCrisisEventsSince(ctx context.Context, patientID uint, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.CrisisEvent{}).
		Where("patient_id = ? AND created_at >= ?", patientID, since).
		Count(&n).Error
	return n, err
}

func (r *MonitoringRepository) CreateCrisisEvent(ctx context.Context, event *models.CrisisEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// ResolveCrisisEvent marks the event resolved by userID. Empty notes keep the
// existing ones.
func (r *MonitoringRepository) ResolveCrisisEvent(ctx context.Context, id, userID uint, notes string, at time.Time) (*models.CrisisEvent, error) {
	var event models.CrisisEvent
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&event, id).Error; err != nil {
			return notFound(err)
		}
		event.Status = models.CrisisResolved
		event.ResolvedAt = &at
		event.ResolvedBy = &userID
		if notes != "" {
			event.Notes = notes
		}
		return tx.Save(&event).Error
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}
