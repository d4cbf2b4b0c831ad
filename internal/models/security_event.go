package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Security event types recorded by the API.
const (
	EventLoginSuccess = "login_success"
	EventLoginFailure = "login_failure"
)

// SecurityEvent is an append-only audit record. Rows are never updated or deleted
// outside of retention cleanup.
type SecurityEvent struct {
	ID        string         `gorm:"primaryKey;type:uuid" json:"id"`
	EventType string         `gorm:"not null;index" json:"event_type"`
	UserID    string         `gorm:"index" json:"user_id"`
	Details   string         `json:"details"`
	Metadata  datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt time.Time      `gorm:"index" json:"timestamp"`
}

// TableName keeps the historical table name used by existing deployments.
func (SecurityEvent) TableName() string { return "security_log" }

// BeforeCreate ensures a UUID is present before persisting.
func (e *SecurityEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
