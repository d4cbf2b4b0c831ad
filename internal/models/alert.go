package models

import "time"

// CriticalAlert is a persisted critical lab-test result awaiting acknowledgment.
// Shown is the historical name for the closed flag: false means the alert is
// still pending, true means a user has closed it.
type CriticalAlert struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	FileNumber string     `gorm:"not null;index" json:"file_number"`
	TestName   string     `gorm:"not null;index" json:"test_name"`
	Value      string     `gorm:"not null" json:"value"`
	Timestamp  time.Time  `gorm:"not null;index" json:"timestamp"`
	Shown      bool       `gorm:"not null;default:false;index" json:"shown"`
	ClosedBy   *string    `json:"closed_by"`
	ClosedAt   *time.Time `json:"closed_at"`
}

// TableName keeps the historical table name used by existing deployments.
func (CriticalAlert) TableName() string { return "critical_alerts" }

// Pending reports whether the alert has not been closed yet.
func (a *CriticalAlert) Pending() bool { return !a.Shown }
