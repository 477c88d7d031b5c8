package repository

import (
	"context"
	"errors"

	"neurothrive/internal/models"

	"gorm.io/gorm"
)

var ErrPatientExists = errors.New("a patient with this identifier already exists")

type PatientRepository struct {
	db *gorm.DB
}

func NewPatientRepository(db *gorm.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

func (r *PatientRepository) CreatePatient(ctx context.Context, p *models.Patient) error {
	err := r.db.WithContext(ctx).Create(p).Error
	if err != nil && isDuplicateKey(err) {
		return ErrPatientExists
	}
	return err
}

func (r *PatientRepository) GetPatient(ctx context.Context, id uint) (*models.Patient, error) {
	var p models.Patient
	err := r.db.WithContext(ctx).First(&p, id).Error
	return &p, notFound(err)
}

// ListPatients returns all patients, or only parentID's when it is set.
func (r *PatientRepository) ListPatients(ctx context.Context, parentID *uint) ([]models.Patient, error) {
	var patients []models.Patient
	q := r.db.WithContext(ctx).Order("id")
	if parentID != nil {
		q = q.Where("parent_user_id = ?", *parentID)
	}
	err := q.Find(&patients).Error
	return patients, err
}
