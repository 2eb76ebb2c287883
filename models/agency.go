package models

import (
	"time"

	"gorm.io/gorm"
)

// Agency is the tenant organization. Every other record hangs off an agency
// and all queries are scoped by AgencyID.
type Agency struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	Timezone  string         `gorm:"size:100;default:'America/Chicago'" json:"timezone"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	AdminUsers  []AdminUser  `gorm:"foreignKey:AgencyID" json:"admin_users,omitempty"`
	TeamMembers []TeamMember `gorm:"foreignKey:AgencyID" json:"team_members,omitempty"`
}

// AdminUser is a console login for agency owners and managers.
type AdminUser struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	AgencyID  string         `gorm:"type:uuid;not null;index" json:"agency_id"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Password  string         `gorm:"size:255" json:"-"` // Hashed password (excluded from JSON)
	FullName  string         `gorm:"size:255" json:"full_name,omitempty"`
	Role      string         `gorm:"default:'admin';check:role IN ('owner', 'admin')" json:"role"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Agency        Agency         `gorm:"foreignKey:AgencyID" json:"agency,omitempty"`
	RefreshTokens []RefreshToken `gorm:"foreignKey:AdminUserID" json:"refresh_tokens,omitempty"`
}

type RefreshToken struct {
	ID          string         `gorm:"type:uuid;primaryKey" json:"id"`
	AdminUserID string         `gorm:"type:uuid;not null;index" json:"admin_user_id"`
	Token       string         `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt   time.Time      `gorm:"not null" json:"expires_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	AdminUser AdminUser `gorm:"foreignKey:AdminUserID" json:"admin_user,omitempty"`
}
