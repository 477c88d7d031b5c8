package models

import "time"

// Crisis event states.
const (
	CrisisPredicted = "predicted"
	CrisisOccurred  = "occurred"
	CrisisResolved  = "resolved"
)

// DailyCheckin is a parent's daily report on a child plus the crisis risk
// computed from it. CrisisRiskScore is a fraction.
type DailyCheckin struct {
	ID                    uint      `gorm:"primaryKey"`
	PatientID             uint      `gorm:"index;not null"`
	SubmittedBy           uint      `gorm:"index"`
	CheckinDate           time.Time `gorm:"index;not null"`
	SleepHours            *float64
	SleepQuality          string `gorm:"size:40"`
	SleepDisturbances     *int
	MoodMorning           string `gorm:"size:30"`
	Appetite              string `gorm:"size:30"`
	CommunicationAttempts *int
	NewWordsJSON          string `gorm:"type:text"`
	SocialInteractions    *int
	SensoryAvoidanceCount *int
	Meltdowns             *int
	MeltdownTrigger       string `gorm:"size:120"`
	MeltdownDurationMin   *int
	SelfHarmIncidents     int
	PositiveMomentsJSON   string `gorm:"type:text"`
	TherapyCompleted      bool
	SkillPracticeDone     bool
	OverallDayRating      *int
	CrisisRiskScore       float64
	CrisisRiskLevel       string `gorm:"size:10"`
	CreatedAt             time.Time
}

// CrisisEvent is a predicted, occurred or resolved crisis episode.
type CrisisEvent struct {
	ID                  uint   `gorm:"primaryKey"`
	PatientID           uint   `gorm:"index;not null"`
	CheckinID           *uint  `gorm:"index"`
	Status              string `gorm:"size:12;not null"`
	RiskScore           *float64
	RiskLevel           string `gorm:"size:10"`
	TriggerSignalsJSON  string `gorm:"type:text"`
	PreventionStepsJSON string `gorm:"type:text"`
	OccurredAt          *time.Time
	DurationMinutes     *int
	TriggerDescription  string `gorm:"type:text"`
	DeEscalationUsed    string `gorm:"type:text"`
	ResolvedAt          *time.Time
	ResolvedBy          *uint
	Notes               string    `gorm:"type:text"`
	CreatedAt           time.Time `gorm:"index"`
}
