package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gorm.io/gorm"

	"github.com/medlabs/critalert/internal/models"
)

// TestCount is one entry of the per-test distribution.
type TestCount struct {
	TestName string `json:"test_name"`
	Count    int64  `json:"count"`
}

// AlertStats aggregates alert activity over a trailing window.
// TotalAlerts always equals ClosedAlerts + PendingAlerts.
type AlertStats struct {
	TotalAlerts            int64       `json:"total_alerts"`
	ClosedAlerts           int64       `json:"closed_alerts"`
	PendingAlerts          int64       `json:"pending_alerts"`
	AvgResponseTimeMinutes float64     `json:"avg_response_time_minutes"`
	TestDistribution       []TestCount `json:"test_distribution"`
}

// Stats computes counts, mean response time, and the per-test distribution over
// alerts created within the last `days` days. The mean is 0 when no alert in
// the window has been closed.
func (s *AlertService) Stats(ctx context.Context, days int) (*AlertStats, error) {
	ctx = ensureContext(ctx)

	if days <= 0 {
		return nil, errors.New("alert service: days must be positive")
	}

	since := s.now().UTC().AddDate(0, 0, -days)
	stats := &AlertStats{TestDistribution: []TestCount{}}

	windowed := func() *gorm.DB {
		return s.db.WithContext(ctx).
			Model(&models.CriticalAlert{}).
			Where("timestamp >= ?", since)
	}

	if err := windowed().Count(&stats.TotalAlerts).Error; err != nil {
		return nil, fmt.Errorf("alert service: count window: %w", err)
	}

	if err := windowed().Where("shown = ?", true).Count(&stats.ClosedAlerts).Error; err != nil {
		return nil, fmt.Errorf("alert service: count closed: %w", err)
	}
	stats.PendingAlerts = stats.TotalAlerts - stats.ClosedAlerts

	// Response times are averaged in Go so the query stays portable across
	// sqlite, postgres, and mysql.
	var closed []models.CriticalAlert
	if err := windowed().
		Where("shown = ? AND closed_at IS NOT NULL", true).
		Select("timestamp", "closed_at").
		Find(&closed).Error; err != nil {
		return nil, fmt.Errorf("alert service: load closed alerts: %w", err)
	}
	stats.AvgResponseTimeMinutes = meanResponseMinutes(closed)

	if err := windowed().
		Select("test_name, COUNT(*) as count").
		Group("test_name").
		Order("count DESC").
		Scan(&stats.TestDistribution).Error; err != nil {
		return nil, fmt.Errorf("alert service: test distribution: %w", err)
	}

	return stats, nil
}

func meanResponseMinutes(closed []models.CriticalAlert) float64 {
	if len(closed) == 0 {
		return 0
	}

	var totalMinutes float64
	var counted int
	for _, alert := range closed {
		if alert.ClosedAt == nil {
			continue
		}
		totalMinutes += alert.ClosedAt.Sub(alert.Timestamp).Minutes()
		counted++
	}
	if counted == 0 {
		return 0
	}

	return math.Round(totalMinutes/float64(counted)*100) / 100
}
