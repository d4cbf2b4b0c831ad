package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/medlabs/critalert/internal/models"
	"github.com/medlabs/critalert/pkg/logger"
)

// SecurityEntry captures a single security event to persist.
type SecurityEntry struct {
	EventType string
	UserID    string
	Details   string
	Metadata  map[string]any
}

// SecurityLogFilters encapsulates optional filters when querying the log.
type SecurityLogFilters struct {
	EventType string
	UserID    string
	Since     *time.Time
}

// SecurityLogService persists and retrieves append-only security events.
type SecurityLogService struct {
	db *gorm.DB
}

// NewSecurityLogService constructs a SecurityLogService using the provided database handle.
func NewSecurityLogService(db *gorm.DB) (*SecurityLogService, error) {
	if db == nil {
		return nil, errors.New("security log: db is required")
	}
	return &SecurityLogService{db: db}, nil
}

// Log stores a security event.
func (s *SecurityLogService) Log(ctx context.Context, entry SecurityEntry) error {
	ctx = ensureContext(ctx)

	eventType := strings.TrimSpace(entry.EventType)
	if eventType == "" {
		return errors.New("security log: event type is required")
	}

	event := models.SecurityEvent{
		EventType: eventType,
		UserID:    strings.TrimSpace(entry.UserID),
		Details:   strings.TrimSpace(entry.Details),
	}

	if entry.Metadata != nil {
		encoded, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("security log: marshal metadata: %w", err)
		}
		event.Metadata = datatypes.JSON(encoded)
	}

	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		return fmt.Errorf("security log: create event: %w", err)
	}
	return nil
}

// Record logs the supplied entry while tolerating write failures: a failed
// security-log write must never fail the caller's primary operation.
func (s *SecurityLogService) Record(ctx context.Context, entry SecurityEntry) {
	if s == nil {
		return
	}
	if err := s.Log(ctx, entry); err != nil {
		logger.WithModule("security").Warn("security event dropped",
			zap.String("event_type", entry.EventType),
			zap.Error(err),
		)
	}
}

// List returns security events ordered by creation time descending.
func (s *SecurityLogService) List(ctx context.Context, filters SecurityLogFilters, limit int) ([]models.SecurityEvent, error) {
	ctx = ensureContext(ctx)

	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := s.db.WithContext(ctx).Model(&models.SecurityEvent{})
	if filters.EventType != "" {
		query = query.Where("event_type = ?", filters.EventType)
	}
	if filters.UserID != "" {
		query = query.Where("user_id = ?", filters.UserID)
	}
	if filters.Since != nil {
		query = query.Where("created_at >= ?", *filters.Since)
	}

	var events []models.SecurityEvent
	if err := query.Order("created_at DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, fmt.Errorf("security log: list events: %w", err)
	}
	return events, nil
}

// CleanupOlderThan removes events older than the supplied retention window in days.
func (s *SecurityLogService) CleanupOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	ctx = ensureContext(ctx)

	if retentionDays <= 0 {
		return 0, errors.New("security log: retentionDays must be positive")
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.SecurityEvent{})
	if result.Error != nil {
		return 0, fmt.Errorf("security log: cleanup events: %w", result.Error)
	}
	return result.RowsAffected, nil
}
