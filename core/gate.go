package core

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
)

// AuthState is the result of asking the API who the visitor is.
type AuthState int

const (
	AuthNotFetched AuthState = iota
	AuthAuthenticated
	AuthUnauthenticated
	AuthError
)

func (s AuthState) String() string {
	switch s {
	case AuthNotFetched:
		return "not-fetched"
	case AuthAuthenticated:
		return "authenticated"
	case AuthUnauthenticated:
		return "unauthenticated"
	case AuthError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal is true for every state except AuthNotFetched.
func (s AuthState) Terminal() bool { return s != AuthNotFetched }

// StatusCode is the HTTP status a gated page is served with in state s.
func (s AuthState) StatusCode() int {
	switch s {
	case AuthAuthenticated:
		return http.StatusOK
	case AuthUnauthenticated:
		return http.StatusForbidden
	case AuthError:
		return http.StatusBadGateway
	default:
		return http.StatusAccepted
	}
}

// Gate resolves the auth state for one page render. The first Resolve
// issues the /api/me call; later calls return the settled state.
type Gate struct {
	once    sync.Once
	mu      sync.Mutex
	state   AuthState
	account *Account
	err     error
}

func NewGate() *Gate {
	return &Gate{state: AuthNotFetched}
}

// Resolve moves the gate from AuthNotFetched to a terminal state exactly once.
func (g *Gate) Resolve(ctx context.Context, client APIClient, cookies []*http.Cookie) AuthState {
	g.once.Do(func() {
		acct, _, err := client.Me(ctx, cookies)
		state := gateStateFor(err)

		g.mu.Lock()
		g.state = state
		g.account = acct
		g.err = err
		g.mu.Unlock()

		if err != nil {
			log.Printf("gate state=%s request_id=%s err=%v", state, RequestIDFrom(ctx), err)
		} else {
			log.Printf("gate state=%s request_id=%s", state, RequestIDFrom(ctx))
		}
	})
	return g.State()
}

func gateStateFor(err error) AuthState {
	if err == nil {
		return AuthAuthenticated
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return AuthUnauthenticated
	}
	return AuthError
}

func (g *Gate) State() AuthState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Account is set once the gate is authenticated.
func (g *Gate) Account() *Account {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != AuthAuthenticated {
		return nil
	}
	return g.account
}

func (g *Gate) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}
