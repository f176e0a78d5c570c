package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/alejandrodnm/offerbot/internal/domain"
	"github.com/alejandrodnm/offerbot/internal/ports"
)

// Credentials builds login requests from the configured identity and owns
// the continuation token persisted after every successful login.
type Credentials struct {
	accountName string
	password    string
	guard       ports.GuardStore
}

// NewCredentials creates the credential store. guard keeps the continuation token.
func NewCredentials(accountName, password string, guard ports.GuardStore) *Credentials {
	return &Credentials{accountName: accountName, password: password, guard: guard}
}

// Validate comprueba la identidad antes de tocar la red.
func (c *Credentials) Validate() error {
	var missing []string
	if c.accountName == "" {
		missing = append(missing, "ACCOUNT_NAME")
	}
	if c.password == "" {
		missing = append(missing, "PASSWORD")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: set %s", domain.ErrMissingCredentials, strings.Join(missing, " and "))
	}
	return nil
}

// BuildLoginRequest arma el request con el código 2FA (si hay) y el token
// de continuación guardado (si existe).
func (c *Credentials) BuildLoginRequest(ctx context.Context, secondFactor string) (domain.LoginRequest, error) {
	if err := c.Validate(); err != nil {
		return domain.LoginRequest{}, fmt.Errorf("session.BuildLoginRequest: %w", err)
	}

	req := domain.LoginRequest{
		AccountName:   c.accountName,
		Password:      c.password,
		TwoFactorCode: strings.TrimSpace(secondFactor),
	}

	token, ok, err := c.guard.LoadGuard(ctx)
	if err != nil {
		return domain.LoginRequest{}, fmt.Errorf("session.BuildLoginRequest: load guard: %w", err)
	}
	if ok {
		req.SteamGuard = strings.TrimSpace(string(token))
	}
	return req, nil
}

// PersistContinuationToken sobrescribe el token guardado, sin condiciones.
func (c *Credentials) PersistContinuationToken(ctx context.Context, token []byte) error {
	if err := c.guard.SaveGuard(ctx, token); err != nil {
		return fmt.Errorf("session.PersistContinuationToken: %w", err)
	}
	return nil
}
