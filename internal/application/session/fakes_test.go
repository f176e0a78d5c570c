package session_test

import (
	"context"
	"net/http"
	"sync"

	"github.com/alejandrodnm/offerbot/internal/domain"
)

type memGuard struct {
	data  []byte
	ok    bool
	saves int
	err   error
}

func (g *memGuard) LoadGuard(context.Context) ([]byte, bool, error) {
	return g.data, g.ok, nil
}

func (g *memGuard) SaveGuard(_ context.Context, b []byte) error {
	if g.err != nil {
		return g.err
	}
	g.data, g.ok = append([]byte(nil), b...), len(b) > 0
	g.saves++
	return nil
}

type memCheckpoints struct {
	pd  *domain.PollData
	err error
}

func (c *memCheckpoints) Load(context.Context) (*domain.PollData, error) {
	return c.pd, c.err
}

func (c *memCheckpoints) Save(_ context.Context, pd domain.PollData) error {
	c.pd = &pd
	return nil
}

type fakeTransport struct {
	mu        sync.Mutex
	requests  []domain.LoginRequest
	session   domain.Session
	guard     []byte
	err       error
	block     chan struct{}
	cookieErr error
	cookies   []*http.Cookie
	expired   chan error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		session: domain.Session{
			SessionID: "sess",
			SteamID:   "76561198006409530",
			Cookies:   []*http.Cookie{{Name: "sessionid", Value: "sess"}},
		},
		guard:   []byte("76561198006409530||GUARD"),
		expired: make(chan error),
	}
}

func (f *fakeTransport) Login(_ context.Context, req domain.LoginRequest) (domain.Session, []byte, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return f.session, f.guard, f.err
}

func (f *fakeTransport) SetCookies(c []*http.Cookie) error {
	f.cookies = c
	return f.cookieErr
}

func (f *fakeTransport) Expired() <-chan error { return f.expired }

func (f *fakeTransport) loginCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakePoller struct {
	calls    []string
	pollData *domain.PollData
	cookies  []*http.Cookie
}

func (p *fakePoller) SetCookies(c []*http.Cookie) error {
	p.calls = append(p.calls, "cookies")
	p.cookies = c
	return nil
}

func (p *fakePoller) SetPollData(pd *domain.PollData) {
	p.calls = append(p.calls, "polldata")
	p.pollData = pd
}

func (p *fakePoller) Start(context.Context) { p.calls = append(p.calls, "start") }
func (p *fakePoller) Stop()                 { p.calls = append(p.calls, "stop") }
