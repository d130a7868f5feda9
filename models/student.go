package models

import (
	"time"

	"gorm.io/gorm"
)

// Student is a local snapshot of identity data from the auth/profile service.
// Owned solely by the rewards engine; populated via the student sync worker.
// The engine itself only needs ExternalUserID — names/avatars are here so
// dashboards can render leaderboards without cross-service calls.
type Student struct {
	ID                string  `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID    string  `gorm:"uniqueIndex;not null" json:"external_user_id"`
	Username          string  `gorm:"index;not null" json:"username"`
	Email             string  `json:"email,omitempty"`
	FullName          *string `json:"full_name,omitempty"`
	ProfilePictureURL *string `json:"profile_picture_url,omitempty"`
	Role              string  `gorm:"type:varchar(16);default:'student'" json:"role"` // student | teacher

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
