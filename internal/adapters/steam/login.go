package steam

// login.go — login de Steam Community con usuario, password cifrada con la
// clave RSA que entrega el propio servidor, código 2FA y, si existe, el token
// de steamguard (cookie steamMachineAuth<steamid>) que evita la verificación
// secundaria.

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/offerbot/internal/domain"
)

const machineAuthCookiePrefix = "steamMachineAuth"

// Login authenticates against Steam Community. On success the session
// cookies are already installed in the client.
func (c *Client) Login(ctx context.Context, req domain.LoginRequest) (domain.Session, []byte, error) {
	if req.AccountName == "" || req.Password == "" {
		return domain.Session{}, nil, fmt.Errorf("steam.Login: %w", domain.ErrMissingCredentials)
	}

	if req.SteamGuard != "" {
		if id, token, ok := strings.Cut(req.SteamGuard, "||"); ok {
			c.jar.SetCookies(c.communityURL, []*http.Cookie{{
				Name:  machineAuthCookiePrefix + id,
				Value: url.QueryEscape(token),
				Path:  "/",
			}})
		}
	}

	var key rsaKeyResponse
	if err := c.postForm(ctx, c.communityBase+"/login/getrsakey/", "",
		url.Values{"username": {req.AccountName}}, &key); err != nil {
		return domain.Session{}, nil, fmt.Errorf("steam.Login: getrsakey: %w", err)
	}
	if !key.Success {
		return domain.Session{}, nil, fmt.Errorf("steam.Login: getrsakey: %w: no rsa key for account", domain.ErrLoginRejected)
	}

	encrypted, err := encryptPassword(key.PublicKeyMod, key.PublicKeyExp, req.Password)
	if err != nil {
		return domain.Session{}, nil, fmt.Errorf("steam.Login: %w", err)
	}

	form := url.Values{
		"username":          {req.AccountName},
		"password":          {encrypted},
		"twofactorcode":     {req.TwoFactorCode},
		"emailauth":         {""},
		"loginfriendlyname": {""},
		"captchagid":        {"-1"},
		"captcha_text":      {""},
		"emailsteamid":      {""},
		"rsatimestamp":      {key.Timestamp},
		"remember_login":    {"true"},
		"donotcache":        {strconv.FormatInt(time.Now().UnixMilli(), 10)},
	}

	var resp loginResponse
	if err := c.postForm(ctx, c.communityBase+"/login/dologin/", c.communityBase+"/login", form, &resp); err != nil {
		return domain.Session{}, nil, fmt.Errorf("steam.Login: dologin: %w", err)
	}
	if err := loginFailure(resp); err != nil {
		return domain.Session{}, nil, fmt.Errorf("steam.Login: %w", err)
	}

	steamID := resp.TransferParameters.SteamID
	if steamID == "" {
		return domain.Session{}, nil, fmt.Errorf("steam.Login: %w: response without steamid", domain.ErrLoginRejected)
	}

	cookies := c.jar.Cookies(c.communityURL)
	if findCookie(cookies, "steamLoginSecure") == nil && resp.TransferParameters.TokenSecure != "" {
		c.jar.SetCookies(c.communityURL, []*http.Cookie{{
			Name:  "steamLoginSecure",
			Value: url.QueryEscape(steamID + "||" + resp.TransferParameters.TokenSecure),
			Path:  "/",
		}})
	}
	if findCookie(c.jar.Cookies(c.communityURL), "sessionid") == nil {
		c.jar.SetCookies(c.communityURL, []*http.Cookie{{Name: "sessionid", Value: newSessionID(), Path: "/"}})
	}
	cookies = c.jar.Cookies(c.communityURL)

	if err := c.SetCookies(cookies); err != nil {
		return domain.Session{}, nil, fmt.Errorf("steam.Login: %w", err)
	}
	c.mu.Lock()
	c.steamID = steamID
	c.mu.Unlock()

	guard := req.SteamGuard
	if ck := findCookie(cookies, machineAuthCookiePrefix+steamID); ck != nil {
		token, err := url.QueryUnescape(ck.Value)
		if err != nil {
			token = ck.Value
		}
		guard = steamID + "||" + token
	}

	sess := domain.Session{
		SessionID: c.currentSessionID(),
		SteamID:   steamID,
		Cookies:   cookies,
	}
	return sess, []byte(guard), nil
}

func loginFailure(resp loginResponse) error {
	switch {
	case resp.Success && resp.LoginComplete:
		return nil
	case resp.RequiresTwoFactor:
		return fmt.Errorf("%w: two-factor code required or invalid", domain.ErrLoginRejected)
	case resp.EmailAuthNeeded:
		return fmt.Errorf("%w: email steamguard code required", domain.ErrLoginRejected)
	case resp.CaptchaNeeded:
		return fmt.Errorf("%w: captcha required", domain.ErrLoginRejected)
	case resp.Message != "":
		return fmt.Errorf("%w: %s", domain.ErrLoginRejected, resp.Message)
	}
	return fmt.Errorf("%w: unknown reason", domain.ErrLoginRejected)
}

func encryptPassword(modHex, expHex, password string) (string, error) {
	mod, ok := new(big.Int).SetString(modHex, 16)
	if !ok {
		return "", fmt.Errorf("invalid rsa modulus")
	}
	exp, err := strconv.ParseInt(expHex, 16, 32)
	if err != nil {
		return "", fmt.Errorf("invalid rsa exponent: %w", err)
	}
	pub := &rsa.PublicKey{N: mod, E: int(exp)}
	out, err := rsa.EncryptPKCS1v15(rand.Reader, pub, []byte(password))
	if err != nil {
		return "", fmt.Errorf("encrypt password: %w", err)
	}
	return base64.StdEncoding.EncodeToString(out), nil
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, ck := range cookies {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}
