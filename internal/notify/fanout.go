package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/medlabs/critalert/internal/devices"
	"github.com/medlabs/critalert/internal/directory"
	"github.com/medlabs/critalert/internal/models"
	"github.com/medlabs/critalert/pkg/logger"
	"github.com/medlabs/critalert/pkg/metrics"
)

// Fanout delivers new-alert notifications across the push and WhatsApp
// channels. Delivery is best effort: each channel attempt runs to completion
// and overall success means at least one send went through.
type Fanout struct {
	dir       directory.UserDirectory
	registry  devices.Registry
	push      PushSender
	messenger MessageSender
	log       *zap.Logger
}

// NewFanout wires the fan-out pipeline.
func NewFanout(dir directory.UserDirectory, registry devices.Registry, push PushSender, messenger MessageSender) (*Fanout, error) {
	if dir == nil {
		return nil, errors.New("notify: user directory is required")
	}
	if registry == nil {
		return nil, errors.New("notify: device registry is required")
	}
	if push == nil {
		return nil, errors.New("notify: push sender is required")
	}
	if messenger == nil {
		return nil, errors.New("notify: message sender is required")
	}

	return &Fanout{
		dir:       dir,
		registry:  registry,
		push:      push,
		messenger: messenger,
		log:       logger.WithModule("fanout"),
	}, nil
}

// NotifyNewAlert pushes the alert to every receiver with a registered device
// and sends one WhatsApp message to the fixed destination. It reports true
// when at least one send succeeded. Receivers without a token are skipped,
// channel failures are swallowed, and admins are not auto-notified.
func (f *Fanout) NotifyNewAlert(ctx context.Context, alert *models.CriticalAlert) bool {
	if alert == nil {
		return false
	}

	title := "Critical Result Alert"
	body := fmt.Sprintf("File: %s\nTest: %s\nValue: %s", alert.FileNumber, alert.TestName, alert.Value)
	data := map[string]any{"alert_id": alert.ID}

	var sent bool
	var errs error

	for _, receiver := range f.dir.ListByRole(models.RoleReceiver) {
		token, ok, err := f.registry.Token(ctx, receiver.ID)
		if err != nil {
			metrics.NotificationSends.WithLabelValues("push", "failure").Inc()
			errs = multierr.Append(errs, fmt.Errorf("token lookup for %s: %w", receiver.ID, err))
			continue
		}
		if !ok {
			metrics.NotificationSends.WithLabelValues("push", "skipped").Inc()
			continue
		}

		if err := f.push.Send(ctx, token, title, body, data); err != nil {
			metrics.NotificationSends.WithLabelValues("push", "failure").Inc()
			errs = multierr.Append(errs, fmt.Errorf("push to %s: %w", receiver.ID, err))
			continue
		}

		metrics.NotificationSends.WithLabelValues("push", "success").Inc()
		sent = true
	}

	whatsappBody := fmt.Sprintf("Critical Lab Result Alert\nPatient File: %s\nTest: %s\nValue: %s",
		alert.FileNumber, alert.TestName, alert.Value)
	if err := f.messenger.Send(ctx, whatsappBody); err != nil {
		metrics.NotificationSends.WithLabelValues("whatsapp", "failure").Inc()
		errs = multierr.Append(errs, fmt.Errorf("whatsapp: %w", err))
	} else {
		metrics.NotificationSends.WithLabelValues("whatsapp", "success").Inc()
		sent = true
	}

	if errs != nil {
		f.log.Warn("notification channels reported errors",
			zap.Uint("alert_id", alert.ID),
			zap.Bool("delivered", sent),
			zap.Error(errs),
		)
	}

	return sent
}

// SendToUser pushes a notification to the caller's own registered device,
// backing the test-notification endpoint.
func (f *Fanout) SendToUser(ctx context.Context, userID, title, body string, data map[string]any) error {
	token, ok, err := f.registry.Token(ctx, userID)
	if err != nil {
		return fmt.Errorf("notify: token lookup: %w", err)
	}
	if !ok {
		return fmt.Errorf("notify: no device registered for user %s", userID)
	}

	if err := f.push.Send(ctx, token, title, body, data); err != nil {
		metrics.NotificationSends.WithLabelValues("push", "failure").Inc()
		return err
	}
	metrics.NotificationSends.WithLabelValues("push", "success").Inc()
	return nil
}
