package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/medlabs/critalert/internal/database/testutil"
	"github.com/medlabs/critalert/internal/directory"
	"github.com/medlabs/critalert/internal/models"
	"github.com/medlabs/critalert/internal/services"
)

func newTestAuthenticator(t *testing.T) (*Authenticator, *services.SecurityLogService) {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	seclog, err := services.NewSecurityLogService(db)
	require.NoError(t, err)

	dir, err := directory.NewStaticDirectory([]directory.Seed{
		{ID: "dr.sara", Name: "Dr. Sara", Role: "receiver", Password: "correct-horse"},
	})
	require.NoError(t, err)

	authenticator, err := NewAuthenticator(dir, seclog)
	require.NoError(t, err)
	return authenticator, seclog
}

func TestAuthenticateSuccess(t *testing.T) {
	authenticator, seclog := newTestAuthenticator(t)
	ctx := context.Background()

	user, err := authenticator.Authenticate(ctx, "dr.sara", "correct-horse")
	require.NoError(t, err)
	require.Equal(t, "dr.sara", user.ID)
	require.Equal(t, models.RoleReceiver, user.Role)

	events, err := seclog.List(ctx, services.SecurityLogFilters{EventType: models.EventLoginSuccess}, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "dr.sara", events[0].UserID)
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	authenticator, seclog := newTestAuthenticator(t)
	ctx := context.Background()

	_, unknownErr := authenticator.Authenticate(ctx, "ghost", "whatever")
	require.ErrorIs(t, unknownErr, ErrInvalidCredentials)

	_, badPassErr := authenticator.Authenticate(ctx, "dr.sara", "wrong")
	require.ErrorIs(t, badPassErr, ErrInvalidCredentials)

	// Callers see the same error either way; the security log keeps the cause.
	require.Equal(t, unknownErr.Error(), badPassErr.Error())

	failures, err := seclog.List(ctx, services.SecurityLogFilters{EventType: models.EventLoginFailure}, 10)
	require.NoError(t, err)
	require.Len(t, failures, 2)

	details := []string{failures[0].Details, failures[1].Details}
	require.Contains(t, details, "user not found")
	require.Contains(t, details, "invalid password")
}

func TestAuthenticatorWorksWithoutSecurityLog(t *testing.T) {
	dir, err := directory.NewStaticDirectory([]directory.Seed{
		{ID: "lab1", Role: "sender", Password: "pw"},
	})
	require.NoError(t, err)

	authenticator, err := NewAuthenticator(dir, nil)
	require.NoError(t, err)

	user, err := authenticator.Authenticate(context.Background(), "lab1", "pw")
	require.NoError(t, err)
	require.Equal(t, models.RoleSender, user.Role)
}

func TestNewAuthenticatorRequiresDirectory(t *testing.T) {
	_, err := NewAuthenticator(nil, nil)
	require.Error(t, err)
}
