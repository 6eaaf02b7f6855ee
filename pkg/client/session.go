package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

type State int

const (
	StateUninitialized State = iota
	StateChecking
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateChecking:
		return "checking"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// AuthAPI is the part of the API a Session drives. *Client satisfies it.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*User, error)
	Logout(ctx context.Context) error
	Refresh(ctx context.Context) (*User, error)
	Me(ctx context.Context) (*User, error)
}

// Session tracks who the API considers logged in and which account the user
// is working on. It is safe for concurrent use.
//
// A 401 from the API triggers exactly one refresh followed by a re-check.
// When the refresh fails the session becomes Unauthenticated and OnLoggedOut
// runs; expired credentials are never returned as errors.
type Session struct {
	api    AuthAPI
	logger zerolog.Logger

	onLoggedOut func()
	onChange    func(State)

	mu       sync.RWMutex
	state    State
	user     *User
	selected string

	refreshes singleflight.Group

	loopMu sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type SessionOption func(*Session)

// WithOnLoggedOut registers the callback run when the session expires, the
// place to send the user back to the login screen.
func WithOnLoggedOut(fn func()) SessionOption {
	return func(s *Session) { s.onLoggedOut = fn }
}

// WithStateListener is called after every state transition.
func WithStateListener(fn func(State)) SessionOption {
	return func(s *Session) { s.onChange = fn }
}

func WithLogger(logger zerolog.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

func NewSession(api AuthAPI, opts ...SessionOption) *Session {
	s := &Session{api: api, logger: zerolog.Nop(), state: StateUninitialized}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns the authenticated user, or nil.
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// SelectAccount makes id the account every view works on. The session is the
// only place the selection is kept.
func (s *Session) SelectAccount(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = id
}

func (s *Session) SelectedAccount() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected, s.selected != ""
}

// Check asks the API who the current user is. Auth failures resolve to
// Unauthenticated with a nil error. Other failures, such as the server being
// unreachable, are returned and leave an established state untouched.
func (s *Session) Check(ctx context.Context) (State, error) {
	prev := s.State()
	if prev == StateUninitialized {
		s.transition(StateChecking, nil)
	}

	u, err := s.api.Me(ctx)
	if errors.Is(err, ErrUnauthorized) {
		u, err = s.refreshAndRecheck(ctx)
		if errors.Is(err, ErrUnauthorized) {
			s.expire(err)
			return StateUnauthenticated, nil
		}
	}
	if err != nil {
		if prev == StateUninitialized || prev == StateChecking {
			s.transition(StateUnauthenticated, nil)
		}
		return s.State(), err
	}

	s.transition(StateAuthenticated, u)
	return StateAuthenticated, nil
}

// Login authenticates and moves the session to Authenticated.
func (s *Session) Login(ctx context.Context, email, password string) (*User, error) {
	u, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.transition(StateAuthenticated, u)
	return u, nil
}

// Logout revokes the server session as far as possible and always clears
// local state.
func (s *Session) Logout(ctx context.Context) {
	if err := s.api.Logout(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("logout request failed, clearing local session anyway")
	}
	s.mu.Lock()
	s.selected = ""
	s.mu.Unlock()
	s.transition(StateUnauthenticated, nil)
}

// Do runs call and, when it fails with 401, refreshes once and retries it.
// A successful refresh marks the session authenticated as the returned user.
// A failed refresh expires the session; the original 401 is returned.
func (s *Session) Do(ctx context.Context, call func(ctx context.Context) error) error {
	err := call(ctx)
	if !errors.Is(err, ErrUnauthorized) {
		return err
	}
	u, rerr := s.refresh(ctx)
	if rerr != nil {
		if errors.Is(rerr, ErrUnauthorized) {
			s.expire(rerr)
			return err
		}
		return rerr
	}
	if u != nil {
		s.transition(StateAuthenticated, u)
	}
	return call(ctx)
}

// Start re-validates the session every interval until ctx is cancelled or
// Stop is called. The first check runs immediately. Calling Start on a running
// session is a no-op.
func (s *Session) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	s.loopMu.Lock()
	defer s.loopMu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(ctx, interval, s.done)
}

// Stop ends the re-validation loop and waits for it to exit.
func (s *Session) Stop() {
	s.loopMu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.loopMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Session) loop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Check(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn().Err(err).Msg("session check failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Session) refreshAndRecheck(ctx context.Context) (*User, error) {
	if _, err := s.refresh(ctx); err != nil {
		return nil, err
	}
	return s.api.Me(ctx)
}

// refresh collapses concurrent refreshes into one request so a rotated token
// is never presented twice.
func (s *Session) refresh(ctx context.Context) (*User, error) {
	v, err, _ := s.refreshes.Do("refresh", func() (any, error) {
		return s.api.Refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*User), nil
}

func (s *Session) expire(cause error) {
	s.mu.Lock()
	wasOut := s.state == StateUnauthenticated
	s.selected = ""
	s.mu.Unlock()

	s.transition(StateUnauthenticated, nil)
	if wasOut {
		return
	}
	s.logger.Info().Err(cause).Msg("session expired")
	if s.onLoggedOut != nil {
		s.onLoggedOut()
	}
}

func (s *Session) transition(to State, u *User) {
	s.mu.Lock()
	changed := s.state != to
	s.state = to
	s.user = u
	s.mu.Unlock()

	if changed && s.onChange != nil {
		s.onChange(to)
	}
}
