package models

import (
	"time"

	"gorm.io/gorm"
)

// CallRubric is a per-agency override of the built-in scoring rubric for a
// call type. Definition holds the rubric JSON (sections and checklist).
type CallRubric struct {
	ID         string         `gorm:"type:uuid;primaryKey" json:"id"`
	AgencyID   string         `gorm:"type:uuid;not null;index:idx_rubric_agency_type,unique" json:"agency_id"`
	CallType   string         `gorm:"not null;index:idx_rubric_agency_type,unique;check:call_type IN ('sales', 'service')" json:"call_type"`
	Definition string         `gorm:"type:text;not null" json:"definition"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}
