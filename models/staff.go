package models

import (
	"time"

	"gorm.io/gorm"
)

// TeamMember is a staff profile as the agency manages it. A profile may or
// may not have a portal login attached.
type TeamMember struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	AgencyID  string         `gorm:"type:uuid;not null;index" json:"agency_id"`
	FullName  string         `gorm:"size:255;not null" json:"full_name"`
	Email     string         `gorm:"size:255" json:"email,omitempty"`
	Position  string         `gorm:"size:100" json:"position,omitempty"` // e.g. producer, CSR, office manager
	Active    bool           `gorm:"default:true" json:"active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Agency    Agency     `gorm:"foreignKey:AgencyID" json:"agency,omitempty"`
	StaffUser *StaffUser `gorm:"foreignKey:TeamMemberID" json:"staff_user,omitempty"`
}

// StaffUser is a staff-portal login credential, optionally linked to a
// team member profile. Deactivation flips Active; rows are never hard deleted
// so completion history survives.
type StaffUser struct {
	ID                 string         `gorm:"type:uuid;primaryKey" json:"id"`
	AgencyID           string         `gorm:"type:uuid;not null;index" json:"agency_id"`
	TeamMemberID       *string        `gorm:"type:uuid;index" json:"team_member_id,omitempty"`
	Email              string         `gorm:"uniqueIndex;not null" json:"email"`
	Password           string         `gorm:"size:255" json:"-"` // Hashed password (excluded from JSON)
	FullName           string         `gorm:"size:255" json:"full_name,omitempty"`
	Active             bool           `gorm:"default:true" json:"active"`
	MustChangePassword bool           `gorm:"default:false" json:"must_change_password"`
	InviteSentAt       *time.Time     `json:"invite_sent_at,omitempty"`
	LastLoginAt        *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Agency      Agency               `gorm:"foreignKey:AgencyID" json:"agency,omitempty"`
	TeamMember  *TeamMember          `gorm:"foreignKey:TeamMemberID" json:"team_member,omitempty"`
	Assignments []TrainingAssignment `gorm:"foreignKey:StaffUserID" json:"assignments,omitempty"`
}
