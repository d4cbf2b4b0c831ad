package auth

import (
	"context"
	"errors"

	"github.com/medlabs/critalert/internal/directory"
	"github.com/medlabs/critalert/internal/models"
	"github.com/medlabs/critalert/internal/services"
	"github.com/medlabs/critalert/pkg/crypto"
)

// ErrInvalidCredentials is returned when the id/password pair does not match.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Authenticator verifies user credentials against the directory and records
// the outcome in the security log.
type Authenticator struct {
	dir    directory.UserDirectory
	seclog *services.SecurityLogService
}

// NewAuthenticator constructs an Authenticator. The security log is optional.
func NewAuthenticator(dir directory.UserDirectory, seclog *services.SecurityLogService) (*Authenticator, error) {
	if dir == nil {
		return nil, errors.New("auth: user directory is required")
	}
	return &Authenticator{dir: dir, seclog: seclog}, nil
}

// Authenticate checks the supplied credentials. Failures are indistinguishable
// to the caller (ErrInvalidCredentials) but the security log records the cause.
func (a *Authenticator) Authenticate(ctx context.Context, userID, password string) (*models.User, error) {
	user, ok := a.dir.Lookup(userID)
	if !ok {
		a.record(ctx, models.EventLoginFailure, userID, "user not found")
		return nil, ErrInvalidCredentials
	}

	if !crypto.VerifyPassword(user.PasswordHash, password) {
		a.record(ctx, models.EventLoginFailure, userID, "invalid password")
		return nil, ErrInvalidCredentials
	}

	a.record(ctx, models.EventLoginSuccess, userID, "")
	return user, nil
}

func (a *Authenticator) record(ctx context.Context, eventType, userID, details string) {
	if a.seclog == nil {
		return
	}
	a.seclog.Record(ctx, services.SecurityEntry{
		EventType: eventType,
		UserID:    userID,
		Details:   details,
	})
}
