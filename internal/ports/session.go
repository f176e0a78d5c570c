package ports

import (
	"context"
	"net/http"

	"github.com/alejandrodnm/offerbot/internal/domain"
)

// SessionTransport opens and maintains the authenticated web session.
type SessionTransport interface {
	// Login authenticates and returns the session plus the steamguard
	// continuation token to persist for unattended relogins.
	Login(ctx context.Context, req domain.LoginRequest) (domain.Session, []byte, error)

	// SetCookies installs session cookies into the transport.
	SetCookies(cookies []*http.Cookie) error

	// Expired fires whenever the platform rejects the current session.
	Expired() <-chan error
}
