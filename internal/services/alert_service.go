package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/medlabs/critalert/internal/models"
	apperrors "github.com/medlabs/critalert/pkg/errors"
)

// CreateAlertInput defines the attributes required to file a critical alert.
// Value stays a string on purpose: callers may submit non-numeric results.
type CreateAlertInput struct {
	FileNumber string
	TestName   string
	Value      string
}

// ListAlertsOptions controls pagination and the closed-status filter.
type ListAlertsOptions struct {
	Page       int
	PerPage    int
	ShowClosed bool
}

// AlertService owns the critical_alerts table: inserts, paginated reads,
// and the pending -> closed transition.
type AlertService struct {
	db  *gorm.DB
	now func() time.Time
}

// AlertServiceOption customises the service, primarily for tests.
type AlertServiceOption func(*AlertService)

// WithClock overrides the clock used for timestamps.
func WithClock(now func() time.Time) AlertServiceOption {
	return func(s *AlertService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewAlertService constructs an AlertService using the provided database handle.
func NewAlertService(db *gorm.DB, opts ...AlertServiceOption) (*AlertService, error) {
	if db == nil {
		return nil, errors.New("alert service: db is required")
	}

	s := &AlertService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create inserts a new pending alert and returns it with its generated id.
func (s *AlertService) Create(ctx context.Context, input CreateAlertInput) (*models.CriticalAlert, error) {
	ctx = ensureContext(ctx)

	fileNumber := strings.TrimSpace(input.FileNumber)
	testName := strings.TrimSpace(input.TestName)
	value := strings.TrimSpace(input.Value)
	if fileNumber == "" || testName == "" || value == "" {
		return nil, errors.New("alert service: file number, test name and value are required")
	}

	alert := models.CriticalAlert{
		FileNumber: fileNumber,
		TestName:   testName,
		Value:      value,
		Timestamp:  s.now().UTC(),
		Shown:      false,
	}

	if err := s.db.WithContext(ctx).Create(&alert).Error; err != nil {
		return nil, fmt.Errorf("alert service: create alert: %w", err)
	}

	return &alert, nil
}

// GetByID loads a single alert.
func (s *AlertService) GetByID(ctx context.Context, id uint) (*models.CriticalAlert, error) {
	ctx = ensureContext(ctx)

	var alert models.CriticalAlert
	if err := s.db.WithContext(ctx).First(&alert, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("alert service: load alert: %w", err)
	}
	return &alert, nil
}

// List returns alerts ordered most-recent-first with offset pagination. When
// ShowClosed is false both the items and the total are restricted to pending
// alerts. A page past the end yields an empty list with the correct total.
func (s *AlertService) List(ctx context.Context, opts ListAlertsOptions) ([]models.CriticalAlert, int64, error) {
	ctx = ensureContext(ctx)

	page := opts.Page
	if page < 1 {
		page = 1
	}
	perPage := opts.PerPage
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	query := s.db.WithContext(ctx).Model(&models.CriticalAlert{})
	if !opts.ShowClosed {
		query = query.Where("shown = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("alert service: count alerts: %w", err)
	}

	var alerts []models.CriticalAlert
	if err := query.
		Order("timestamp DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&alerts).Error; err != nil {
		return nil, 0, fmt.Errorf("alert service: list alerts: %w", err)
	}

	return alerts, total, nil
}

// Pending returns all unclosed alerts without pagination.
func (s *AlertService) Pending(ctx context.Context) ([]models.CriticalAlert, error) {
	ctx = ensureContext(ctx)

	var alerts []models.CriticalAlert
	if err := s.db.WithContext(ctx).
		Where("shown = ?", false).
		Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("alert service: pending alerts: %w", err)
	}
	return alerts, nil
}

// Close marks an alert as closed by the supplied user. Closing an already
// closed alert succeeds and overwrites closed_by/closed_at (last write wins);
// an unknown id reports not found.
func (s *AlertService) Close(ctx context.Context, id uint, userID string) (*models.CriticalAlert, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("alert service: user id is required")
	}

	closedAt := s.now().UTC()
	result := s.db.WithContext(ctx).
		Model(&models.CriticalAlert{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"shown":     true,
			"closed_by": userID,
			"closed_at": closedAt,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("alert service: close alert: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.ErrNotFound
	}

	return s.GetByID(ctx, id)
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
