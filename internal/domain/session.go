package domain

import (
	"log/slog"
	"net/http"
)

// LoginRequest is what the transport needs to open a session.
// TwoFactorCode and SteamGuard are omitted when empty.
type LoginRequest struct {
	AccountName   string `json:"accountName"`
	Password      string `json:"password"`
	TwoFactorCode string `json:"twoFactorCode,omitempty"`
	SteamGuard    string `json:"steamguard,omitempty"`
}

// LogValue keeps secrets out of the logs.
func (r LoginRequest) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("account", r.AccountName),
		slog.Bool("two_factor", r.TwoFactorCode != ""),
		slog.Bool("steamguard", r.SteamGuard != ""),
	)
}

// Session holds the credentials produced by a successful login.
type Session struct {
	SessionID string
	SteamID   string
	Cookies   []*http.Cookie
}
