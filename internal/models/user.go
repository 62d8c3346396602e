package models

import "time"

// User describes an alumni community member. Accounts are created unapproved
// and become visible to the rest of the community once an admin approves them.
type User struct {
	BaseModel

	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	DisplayName    string `gorm:"index;not null" json:"display_name"`
	Avatar         string `json:"avatar"`
	Bio            string `gorm:"type:text" json:"bio"`
	GraduationYear int    `json:"graduation_year"`

	IsAdmin    bool       `gorm:"default:false" json:"is_admin"`
	IsApproved bool       `gorm:"default:false;index" json:"is_approved"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	Groups []Group `gorm:"many2many:group_members;" json:"groups,omitempty"`
}
