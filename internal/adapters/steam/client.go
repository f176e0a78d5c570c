package steam

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/alejandrodnm/offerbot/internal/domain"
)

const (
	defaultCommunityBase = "https://steamcommunity.com"
	defaultWebAPIBase    = "https://api.steampowered.com"
	defaultLanguage      = "en"

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client talks to Steam Community (cookie session) and the Steam Web API.
// It implements ports.SessionTransport, ports.OfferSource and ports.OfferActions.
type Client struct {
	http          *http.Client
	jar           http.CookieJar
	communityBase string
	communityURL  *url.URL
	apiBase       string
	language      string

	mu        sync.Mutex
	apiKey    string
	sessionID string
	steamID   string

	expired chan error
}

// NewClient crea un Client con los base URLs dados.
// Si communityBase o apiBase están vacíos, usa los URLs de producción.
func NewClient(communityBase, apiBase, apiKey, language string) (*Client, error) {
	if communityBase == "" {
		communityBase = defaultCommunityBase
	}
	if apiBase == "" {
		apiBase = defaultWebAPIBase
	}
	if language == "" {
		language = defaultLanguage
	}
	communityBase = strings.TrimRight(communityBase, "/")
	apiBase = strings.TrimRight(apiBase, "/")

	u, err := url.Parse(communityBase)
	if err != nil {
		return nil, fmt.Errorf("steam.NewClient: parse community base: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("steam.NewClient: cookie jar: %w", err)
	}

	return &Client{
		http: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
			// Community redirects to /login when the session is gone;
			// we want to see that redirect instead of following it.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		jar:           jar,
		communityBase: communityBase,
		communityURL:  u,
		apiBase:       apiBase,
		language:      language,
		apiKey:        apiKey,
		expired:       make(chan error, 1),
	}, nil
}

// Expired fires when a request shows the session is no longer valid.
func (c *Client) Expired() <-chan error {
	return c.expired
}

// SetCookies installs the session cookies for the community domain and
// picks up the sessionid and steamid they carry.
func (c *Client) SetCookies(cookies []*http.Cookie) error {
	if len(cookies) == 0 {
		return fmt.Errorf("steam.SetCookies: no cookies")
	}
	c.jar.SetCookies(c.communityURL, cookies)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ck := range cookies {
		switch ck.Name {
		case "sessionid":
			c.sessionID = ck.Value
		case "steamLoginSecure":
			if id := steamIDFromLoginCookie(ck.Value); id != "" {
				c.steamID = id
			}
		}
	}
	if c.sessionID == "" {
		c.sessionID = newSessionID()
		c.jar.SetCookies(c.communityURL, []*http.Cookie{{Name: "sessionid", Value: c.sessionID, Path: "/"}})
	}

	// Una señal de expiración anterior ya no aplica a la sesión nueva.
	select {
	case <-c.expired:
	default:
	}
	return nil
}

// SteamID returns the logged-in account's SteamID64, empty before login.
func (c *Client) SteamID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.steamID
}

func (c *Client) currentSessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// markExpired signals session loss without blocking; one pending signal is enough.
func (c *Client) markExpired(cause error) {
	select {
	case c.expired <- cause:
		slog.Warn("steam: session rejected by platform", "err", cause)
	default:
	}
}

// getJSON hace un GET con retries contra la comunidad (sesión por cookies).
func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	return c.doWithRetry(ctx, true, c.getFunc(ctx, rawURL), out)
}

// getAPI hace un GET con retries contra la Web API. La Web API autentica con
// key=, así que un 401/403 es un error de la key y no una sesión perdida.
func (c *Client) getAPI(ctx context.Context, rawURL string, out any) error {
	return c.doWithRetry(ctx, false, c.getFunc(ctx, rawURL), out)
}

func (c *Client) getFunc(ctx context.Context, rawURL string) func() (*http.Response, error) {
	return func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	}
}

// postForm hace un POST form-encoded con retries.
func (c *Client) postForm(ctx context.Context, rawURL, referer string, form url.Values, out any) error {
	body := form.Encode()
	return c.doWithRetry(ctx, true, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
		req.Header.Set("Accept", "application/json")
		if referer != "" {
			req.Header.Set("Referer", referer)
		}
		return c.http.Do(req)
	}, out)
}

// doWithRetry ejecuta la función con backoff exponencial.
// For session-bound requests, 401/403 and redirects to the login page mean
// the session is gone: they are not retried and surface as
// domain.ErrSessionExpired. Other requests get them as plain client errors.
func (c *Client) doWithRetry(ctx context.Context, sessionBound bool, fn func() (*http.Response, error), out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		resp, err := fn()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if sessionBound && isSessionLost(resp) {
			resp.Body.Close()
			err := fmt.Errorf("%w: status %d", domain.ErrSessionExpired, resp.StatusCode)
			c.markExpired(err)
			return err
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			slog.Debug("steam: retrying request", "status", resp.StatusCode, "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		defer resp.Body.Close()
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}

func isSessionLost(resp *http.Response) bool {
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	case http.StatusFound, http.StatusSeeOther, http.StatusMovedPermanently, http.StatusTemporaryRedirect:
		return strings.Contains(resp.Header.Get("Location"), "/login")
	}
	return false
}

// steamLoginSecure is "<steamid64>||<token>", URL-encoded.
func steamIDFromLoginCookie(v string) string {
	if dec, err := url.QueryUnescape(v); err == nil {
		v = dec
	}
	id, _, found := strings.Cut(v, "||")
	if !found {
		return ""
	}
	return id
}

func newSessionID() string {
	b := make([]byte, 12)
	rand.Read(b)
	return hex.EncodeToString(b)
}
