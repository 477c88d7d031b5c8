package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScreeningLog is one video screening run. RiskScore is a fraction.
type ScreeningLog struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	PublicID       uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"id"`
	UploadedBy     uint      `gorm:"index" json:"uploaded_by"`
	VideoName      string    `gorm:"size:64" json:"-"`
	RiskScore      float64   `gorm:"not null" json:"risk_score"`
	RiskLabel      string    `gorm:"size:16" json:"risk_label"`
	IndicatorsJSON string    `gorm:"type:text" json:"-"`
	GazeJSON       string    `gorm:"type:text" json:"-"`
	ShapJSON       string    `gorm:"type:text" json:"-"`
	HeatmapBase64  string    `gorm:"type:text" json:"-"`
	ConsentGiven   bool      `json:"consent_given"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

func (s *ScreeningLog) BeforeCreate(tx *gorm.DB) error {
	if s.PublicID == uuid.Nil {
		s.PublicID = uuid.New()
	}
	return nil
}
