package models

import "time"

// Patient is an anonymised child record. ChildRef is a hash of the real
// identifier; nothing identifying is stored.
type Patient struct {
	ID           uint   `gorm:"primaryKey"`
	ChildRef     string `gorm:"size:64;uniqueIndex;not null"`
	ParentUserID *uint  `gorm:"index"`
	MetadataJSON string `gorm:"type:text"`
	CreatedAt    time.Time
}
