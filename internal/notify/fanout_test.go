package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/medlabs/critalert/internal/devices"
	"github.com/medlabs/critalert/internal/directory"
	"github.com/medlabs/critalert/internal/models"
)

type pushCall struct {
	token string
	title string
	body  string
}

// fakePushSender records sends and fails for tokens listed in failTokens.
type fakePushSender struct {
	calls      []pushCall
	failTokens map[string]bool
}

func (f *fakePushSender) Send(_ context.Context, token, title, body string, _ map[string]any) error {
	f.calls = append(f.calls, pushCall{token: token, title: title, body: body})
	if f.failTokens[token] {
		return errors.New("push rejected")
	}
	return nil
}

// fakeMessageSender records bodies and returns a fixed error.
type fakeMessageSender struct {
	bodies []string
	err    error
}

func (f *fakeMessageSender) Send(_ context.Context, body string) error {
	f.bodies = append(f.bodies, body)
	return f.err
}

func newFanoutFixture(t *testing.T, push *fakePushSender, messenger *fakeMessageSender) (*Fanout, devices.Registry) {
	t.Helper()

	dir, err := directory.NewStaticDirectory([]directory.Seed{
		{ID: "lab1", Role: "sender", Password: "x"},
		{ID: "dr.sara", Role: "receiver", Password: "x"},
		{ID: "dr.omar", Role: "receiver", Password: "x"},
		{ID: "admin", Role: "admin", Password: "x"},
	})
	require.NoError(t, err)

	registry := devices.NewMemoryRegistry()
	fanout, err := NewFanout(dir, registry, push, messenger)
	require.NoError(t, err)
	return fanout, registry
}

func testAlert() *models.CriticalAlert {
	return &models.CriticalAlert{
		ID:         42,
		FileNumber: "F-1001",
		TestName:   "Potassium",
		Value:      "7.2",
	}
}

func TestNotifyNewAlertPushesToReceiversOnly(t *testing.T) {
	push := &fakePushSender{}
	messenger := &fakeMessageSender{}
	fanout, registry := newFanoutFixture(t, push, messenger)

	ctx := context.Background()
	require.NoError(t, registry.Register(ctx, "dr.sara", "tok-sara"))
	require.NoError(t, registry.Register(ctx, "dr.omar", "tok-omar"))
	// Senders and admins never receive pushes even when registered.
	require.NoError(t, registry.Register(ctx, "lab1", "tok-lab"))
	require.NoError(t, registry.Register(ctx, "admin", "tok-admin"))

	sent := fanout.NotifyNewAlert(ctx, testAlert())
	require.True(t, sent)

	require.Len(t, push.calls, 2)
	tokens := []string{push.calls[0].token, push.calls[1].token}
	require.Contains(t, tokens, "tok-sara")
	require.Contains(t, tokens, "tok-omar")
	require.Equal(t, "Critical Result Alert", push.calls[0].title)
	require.Contains(t, push.calls[0].body, "File: F-1001")
	require.Contains(t, push.calls[0].body, "Test: Potassium")
	require.Contains(t, push.calls[0].body, "Value: 7.2")

	require.Len(t, messenger.bodies, 1)
	require.Contains(t, messenger.bodies[0], "Critical Lab Result Alert")
	require.Contains(t, messenger.bodies[0], "Patient File: F-1001")
}

func TestNotifyNewAlertSkipsReceiversWithoutTokens(t *testing.T) {
	push := &fakePushSender{}
	messenger := &fakeMessageSender{}
	fanout, registry := newFanoutFixture(t, push, messenger)

	ctx := context.Background()
	require.NoError(t, registry.Register(ctx, "dr.sara", "tok-sara"))
	// dr.omar has no registered device and must be skipped, not failed.

	sent := fanout.NotifyNewAlert(ctx, testAlert())
	require.True(t, sent)
	require.Len(t, push.calls, 1)
	require.Equal(t, "tok-sara", push.calls[0].token)
}

func TestNotifyNewAlertSucceedsWhenAnyChannelDelivers(t *testing.T) {
	// Every push fails but WhatsApp goes through.
	push := &fakePushSender{failTokens: map[string]bool{"tok-sara": true, "tok-omar": true}}
	messenger := &fakeMessageSender{}
	fanout, registry := newFanoutFixture(t, push, messenger)

	ctx := context.Background()
	require.NoError(t, registry.Register(ctx, "dr.sara", "tok-sara"))
	require.NoError(t, registry.Register(ctx, "dr.omar", "tok-omar"))

	require.True(t, fanout.NotifyNewAlert(ctx, testAlert()))

	// One failing push does not stop the remaining receivers.
	require.Len(t, push.calls, 2)
}

func TestNotifyNewAlertReportsFalseWhenNothingDelivers(t *testing.T) {
	push := &fakePushSender{}
	messenger := &fakeMessageSender{err: ErrChannelDisabled}
	fanout, _ := newFanoutFixture(t, push, messenger)

	// No receiver has a device and the message channel is disabled.
	sent := fanout.NotifyNewAlert(context.Background(), testAlert())
	require.False(t, sent)
	require.Empty(t, push.calls)

	require.False(t, fanout.NotifyNewAlert(context.Background(), nil))
}

func TestSendToUser(t *testing.T) {
	push := &fakePushSender{}
	messenger := &fakeMessageSender{}
	fanout, registry := newFanoutFixture(t, push, messenger)

	ctx := context.Background()
	require.NoError(t, registry.Register(ctx, "dr.sara", "tok-sara"))

	err := fanout.SendToUser(ctx, "dr.sara", "Test Notification", "hello", map[string]any{"test": true})
	require.NoError(t, err)
	require.Len(t, push.calls, 1)
	require.Equal(t, "tok-sara", push.calls[0].token)
	require.Equal(t, "Test Notification", push.calls[0].title)

	// No registered device is an error for a directed send.
	err = fanout.SendToUser(ctx, "dr.omar", "Test Notification", "hello", nil)
	require.Error(t, err)
}

func TestNewFanoutValidatesDependencies(t *testing.T) {
	dir, err := directory.NewStaticDirectory(nil)
	require.NoError(t, err)
	registry := devices.NewMemoryRegistry()
	push := &fakePushSender{}
	messenger := &fakeMessageSender{}

	_, err = NewFanout(nil, registry, push, messenger)
	require.Error(t, err)
	_, err = NewFanout(dir, nil, push, messenger)
	require.Error(t, err)
	_, err = NewFanout(dir, registry, nil, messenger)
	require.Error(t, err)
	_, err = NewFanout(dir, registry, push, nil)
	require.Error(t, err)
}
