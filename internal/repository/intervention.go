package repository

import (
	"context"
	"fmt"
	"time"

	"neurothrive/internal/models"

	"gorm.io/gorm"
)

type InterventionRepository struct {
	db *gorm.DB
}

func NewInterventionRepository(db *gorm.DB) *InterventionRepository {
	return &InterventionRepository{db: db}
}

// ReplaceActivePlans deactivates the patient's current plans and stores the
// new set in a single transaction.
func (r *InterventionRepository) ReplaceActivePlans(ctx context.Context, patientRef string, plans []models.InterventionPlan) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.InterventionPlan{}).
			Where("patient_ref = ? AND is_active = ?", patientRef, true).
			Update("is_active", false).Error
		if err != nil {
			return err
		}
		if len(plans) == 0 {
			return nil
		}
		for i := range plans {
			plans[i].PatientRef = patientRef
			plans[i].IsActive = true
		}
		return tx.Create(&plans).Error
	})
}

func (r *InterventionRepository) ActivePlans(ctx context.Context, patientRef string) ([]models.InterventionPlan, error) {
	var plans []models.InterventionPlan
	err := r.db.WithContext(ctx).
		Where("patient_ref = ? AND is_active = ?", patientRef, true).
		Order("plan_option").
		Find(&plans).Error
	return plans, err
}

func (r *InterventionRepository) GetPlan(ctx context.Context, id uint) (*models.InterventionPlan, error) {
	var plan models.InterventionPlan
	err := r.db.WithContext(ctx).First(&plan, id).Error
	return &plan, notFound(err)
}

// ReviewPlan records a clinician's decision on a plan. Accepting a plan also
// rejects the patient's other active plans.
func (r *InterventionRepository) ReviewPlan(ctx context.Context, id uint, accept bool, reviewer uint, notes string, at time.Time) (*models.InterventionPlan, error) {
	var plan models.InterventionPlan
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&plan, id).Error; err != nil {
			return notFound(err)
		}
		plan.Accepted = accept
		plan.ClinicianNotes = notes
		plan.ReviewedBy = &reviewer
		plan.ReviewedAt = &at
		if err := tx.Save(&plan).Error; err != nil {
			return err
		}
		if !accept {
			return nil
		}
		return tx.Model(&models.InterventionPlan{}).
			Where("patient_ref = ? AND is_active = ? AND id <> ?", plan.PatientRef, true, plan.ID).
			Updates(map[string]any{
				"accepted":        false,
				"clinician_notes": fmt.Sprintf("Auto-rejected: Plan %s was accepted.", plan.PlanOption),
				"reviewed_by":     reviewer,
				"reviewed_at":     at,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &plan, nil
}
