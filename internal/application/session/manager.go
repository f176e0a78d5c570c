package session

// manager.go — máquina de estados de la sesión.
//
//	Unauthenticated --código operador / sesión expirada--> Authenticating
//	Authenticating  --login ok--> Authenticated
//	Authenticated   --sesión expirada (login con token)--> Authenticating
//
// Manager no es thread-safe: todos los métodos se llaman desde el event loop.
// Los logins corren en goroutines y su resultado vuelve por Results().

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/alejandrodnm/offerbot/internal/domain"
	"github.com/alejandrodnm/offerbot/internal/ports"
)

// State of the session.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Poller is the part of the polling subsystem the session drives.
type Poller interface {
	SetCookies(cookies []*http.Cookie) error
	SetPollData(pd *domain.PollData)
	Start(ctx context.Context)
	Stop()
}

// LoginResult is the completion of one login attempt.
type LoginResult struct {
	AttemptID string
	Warm      bool
	Session   domain.Session
	Guard     []byte
	Err       error
}

// Manager owns the session lifecycle.
type Manager struct {
	creds       *Credentials
	transport   ports.SessionTransport
	poller      Poller
	checkpoints ports.CheckpointStore

	state   State
	attempt string
	results chan LoginResult
}

// NewManager creates a Manager in the Unauthenticated state.
func NewManager(creds *Credentials, transport ports.SessionTransport, poller Poller, checkpoints ports.CheckpointStore) *Manager {
	return &Manager{
		creds:       creds,
		transport:   transport,
		poller:      poller,
		checkpoints: checkpoints,
		state:       StateUnauthenticated,
		results:     make(chan LoginResult),
	}
}

// State returns the current session state.
func (m *Manager) State() State {
	return m.state
}

// Results delivers finished login attempts; pass each one to Complete.
func (m *Manager) Results() <-chan LoginResult {
	return m.results
}

// OnSecondFactor starts a cold login with a code typed by the operator.
func (m *Manager) OnSecondFactor(ctx context.Context, code string) error {
	if m.state == StateAuthenticating {
		slog.Warn("session: login already in progress, code ignored")
		return nil
	}

	req, err := m.creds.BuildLoginRequest(ctx, code)
	if err != nil {
		return fatal(fmt.Errorf("session.OnSecondFactor: %w", err))
	}
	m.begin(ctx, req, false)
	return nil
}

// OnSessionExpired relogs with the stored continuation token and no code.
func (m *Manager) OnSessionExpired(ctx context.Context, cause error) error {
	if m.state == StateAuthenticating {
		slog.Debug("session: expiry while authenticating ignored", "cause", cause)
		return nil
	}
	slog.Warn("session: expired, logging in again", "cause", cause)

	req, err := m.creds.BuildLoginRequest(ctx, "")
	if err != nil {
		return fatal(fmt.Errorf("session.OnSessionExpired: %w", err))
	}
	if req.SteamGuard == "" {
		m.state = StateUnauthenticated
		return fatal(fmt.Errorf("session.OnSessionExpired: %w", domain.ErrNoContinuationToken))
	}
	m.begin(ctx, req, true)
	return nil
}

// begin pausa el poller y lanza el login en background.
func (m *Manager) begin(ctx context.Context, req domain.LoginRequest, warm bool) {
	m.poller.Stop()
	m.state = StateAuthenticating
	m.attempt = uuid.New().String()

	slog.Info("session: login started", "attempt", m.attempt, "warm", warm, "request", req)

	go func(id string) {
		sess, guard, err := m.transport.Login(ctx, req)
		res := LoginResult{AttemptID: id, Warm: warm, Session: sess, Guard: guard, Err: err}
		select {
		case m.results <- res:
		case <-ctx.Done():
		}
	}(m.attempt)
}

// Complete applies a login result. Every side effect finishes before the
// poller is resumed; any failure is fatal.
func (m *Manager) Complete(ctx context.Context, res LoginResult) error {
	if m.state != StateAuthenticating || res.AttemptID != m.attempt {
		slog.Debug("session: stale login result discarded", "attempt", res.AttemptID)
		return nil
	}
	m.attempt = ""

	if res.Err != nil {
		m.state = StateUnauthenticated
		return fatal(fmt.Errorf("session.Complete: login: %w", res.Err))
	}

	if err := m.creds.PersistContinuationToken(ctx, res.Guard); err != nil {
		m.state = StateUnauthenticated
		return fatal(fmt.Errorf("session.Complete: %w", err))
	}
	if err := m.transport.SetCookies(res.Session.Cookies); err != nil {
		m.state = StateUnauthenticated
		return fatal(fmt.Errorf("session.Complete: transport cookies: %w", err))
	}
	if err := m.poller.SetCookies(res.Session.Cookies); err != nil {
		m.state = StateUnauthenticated
		return fatal(fmt.Errorf("session.Complete: poller cookies: %w", err))
	}

	pd, err := m.checkpoints.Load(ctx)
	if err != nil {
		m.state = StateUnauthenticated
		return fatal(fmt.Errorf("session.Complete: %w", err))
	}
	if pd != nil {
		m.poller.SetPollData(pd)
	}

	m.state = StateAuthenticated
	m.poller.Start(ctx)

	slog.Info("session: logged in",
		"attempt", res.AttemptID,
		"steamid", res.Session.SteamID,
		"warm", res.Warm,
		"checkpoint", pd != nil,
	)
	return nil
}

func fatal(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrFatal, err)
}
