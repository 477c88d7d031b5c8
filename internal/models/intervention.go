package models

import "time"

// InterventionPlan is one generated therapy option for a patient.
type InterventionPlan struct {
	ID                   uint   `gorm:"primaryKey"`
	PatientRef           string `gorm:"size:64;index;not null"`
	CreatedBy            *uint
	PlanOption           string `gorm:"size:2"`
	PlanName             string `gorm:"size:120"`
	InputFeaturesJSON    string `gorm:"type:text"`
	Frequency            string `gorm:"size:20"`
	MilestoneProbability int
	TimeEstimate         string `gorm:"size:40"`
	EstimatedCost        float64
	Reasoning            string `gorm:"type:text"`
	Accepted             bool
	ClinicianNotes       string `gorm:"type:text"`
	ReviewedBy           *uint
	ReviewedAt           *time.Time
	IsActive             bool `gorm:"index;not null;default:true"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
