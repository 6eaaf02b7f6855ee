package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNetwork = errors.New("connection refused")

type fakeAPI struct {
	mu sync.Mutex

	meErrs     []error // consumed one per Me call; nil entries succeed
	refreshErr error
	loginErr   error
	logoutErr  error

	meCalls      int
	refreshCalls int32
	logoutCalls  int
	refreshDelay time.Duration
}

var alice = &User{ID: "u-1", Email: "alice@example.com", Name: "Alice"}

func unauthorized() error {
	return &APIError{Status: 401, Code: "unauthorized", Message: "unauthorized"}
}

func (f *fakeAPI) Me(context.Context) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meCalls++
	if len(f.meErrs) > 0 {
		err := f.meErrs[0]
		f.meErrs = f.meErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return alice, nil
}

func (f *fakeAPI) Refresh(context.Context) (*User, error) {
	atomic.AddInt32(&f.refreshCalls, 1)
	if f.refreshDelay > 0 {
		time.Sleep(f.refreshDelay)
	}
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return alice, nil
}

func (f *fakeAPI) Login(_ context.Context, email, _ string) (*User, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &User{ID: "u-1", Email: email}, nil
}

func (f *fakeAPI) Logout(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalls++
	return f.logoutErr
}

func TestSession_CheckAuthenticated(t *testing.T) {
	api := &fakeAPI{}
	var states []State
	s := NewSession(api, WithStateListener(func(st State) { states = append(states, st) }))

	assert.Equal(t, StateUninitialized, s.State())

	st, err := s.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateAuthenticated, st)
	assert.Equal(t, alice, s.User())
	assert.Equal(t, []State{StateChecking, StateAuthenticated}, states)
}

func TestSession_CheckRefreshesOnceThenRechecks(t *testing.T) {
	api := &fakeAPI{meErrs: []error{unauthorized(), nil}}
	s := NewSession(api)

	st, err := s.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateAuthenticated, st)
	assert.EqualValues(t, 1, api.refreshCalls)
	assert.Equal(t, 2, api.meCalls)
}

func TestSession_RefreshFailureLogsOut(t *testing.T) {
	api := &fakeAPI{meErrs: []error{unauthorized()}, refreshErr: unauthorized()}
	loggedOut := 0
	s := NewSession(api, WithOnLoggedOut(func() { loggedOut++ }))
	_, err := s.Login(context.Background(), "alice@example.com", "pw")
	require.NoError(t, err)
	s.SelectAccount("acc-1")

	st, err := s.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateUnauthenticated, st)
	assert.Nil(t, s.User())
	assert.Equal(t, 1, loggedOut)
	assert.EqualValues(t, 1, api.refreshCalls)

	_, ok := s.SelectedAccount()
	assert.False(t, ok)
}

func TestSession_RecheckStill401AfterRefresh(t *testing.T) {
	api := &fakeAPI{meErrs: []error{unauthorized(), unauthorized()}}
	loggedOut := 0
	s := NewSession(api, WithOnLoggedOut(func() { loggedOut++ }))

	st, err := s.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateUnauthenticated, st)
	assert.EqualValues(t, 1, api.refreshCalls, "only one refresh per check")
	assert.Equal(t, 1, loggedOut)
}

func TestSession_OnLoggedOutFiresOnlyOnTransition(t *testing.T) {
	api := &fakeAPI{refreshErr: unauthorized()}
	loggedOut := 0
	s := NewSession(api, WithOnLoggedOut(func() { loggedOut++ }))

	api.meErrs = []error{unauthorized(), unauthorized()}
	_, _ = s.Check(context.Background())
	_, _ = s.Check(context.Background())

	assert.Equal(t, StateUnauthenticated, s.State())
	assert.Equal(t, 1, loggedOut)
}

func TestSession_NetworkErrorKeepsEstablishedState(t *testing.T) {
	api := &fakeAPI{}
	s := NewSession(api)
	_, err := s.Check(context.Background())
	require.NoError(t, err)

	api.meErrs = []error{errNetwork}
	st, err := s.Check(context.Background())
	assert.ErrorIs(t, err, errNetwork)
	assert.Equal(t, StateAuthenticated, st)
	assert.Equal(t, alice, s.User())
	assert.Zero(t, api.refreshCalls)
}

func TestSession_NetworkErrorOnFirstCheckResolvesUnauthenticated(t *testing.T) {
	api := &fakeAPI{meErrs: []error{errNetwork}}
	loggedOut := 0
	s := NewSession(api, WithOnLoggedOut(func() { loggedOut++ }))

	st, err := s.Check(context.Background())
	assert.ErrorIs(t, err, errNetwork)
	assert.Equal(t, StateUnauthenticated, st)
	assert.Zero(t, loggedOut)
}

func TestSession_LoginFailureLeavesState(t *testing.T) {
	api := &fakeAPI{loginErr: unauthorized()}
	s := NewSession(api)

	_, err := s.Login(context.Background(), "alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, StateUninitialized, s.State())
}

func TestSession_LogoutNeverFails(t *testing.T) {
	api := &fakeAPI{logoutErr: errNetwork}
	loggedOut := 0
	s := NewSession(api, WithOnLoggedOut(func() { loggedOut++ }))
	_, err := s.Login(context.Background(), "alice@example.com", "pw")
	require.NoError(t, err)
	s.SelectAccount("acc-1")

	s.Logout(context.Background())

	assert.Equal(t, StateUnauthenticated, s.State())
	assert.Nil(t, s.User())
	_, ok := s.SelectedAccount()
	assert.False(t, ok)
	assert.Equal(t, 1, api.logoutCalls)
	assert.Zero(t, loggedOut, "explicit logout is not an expiry")
}

func TestSession_SelectAccount(t *testing.T) {
	s := NewSession(&fakeAPI{})

	_, ok := s.SelectedAccount()
	assert.False(t, ok)

	s.SelectAccount("acc-1")
	s.SelectAccount("acc-2")
	id, ok := s.SelectedAccount()
	assert.True(t, ok)
	assert.Equal(t, "acc-2", id)
}

func TestSession_DoRetriesAfterRefresh(t *testing.T) {
	api := &fakeAPI{}
	var changes []State
	s := NewSession(api, WithStateListener(func(st State) { changes = append(changes, st) }))
	assert.Equal(t, StateUninitialized, s.State())

	calls := 0
	err := s.Do(context.Background(), func(context.Context) error {
		calls++
		if calls == 1 {
			return unauthorized()
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.EqualValues(t, 1, api.refreshCalls)
	assert.Equal(t, StateAuthenticated, s.State())
	assert.Equal(t, alice, s.User())
	assert.Equal(t, []State{StateAuthenticated}, changes)
}

func TestSession_DoExpiresWhenRefreshFails(t *testing.T) {
	api := &fakeAPI{refreshErr: unauthorized()}
	loggedOut := 0
	s := NewSession(api, WithOnLoggedOut(func() { loggedOut++ }))
	_, err := s.Login(context.Background(), "alice@example.com", "pw")
	require.NoError(t, err)

	calls := 0
	err = s.Do(context.Background(), func(context.Context) error {
		calls++
		return unauthorized()
	})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 1, calls)
	assert.Equal(t, StateUnauthenticated, s.State())
	assert.Equal(t, 1, loggedOut)
}

func TestSession_DoPassesThroughOtherErrors(t *testing.T) {
	api := &fakeAPI{}
	s := NewSession(api)

	err := s.Do(context.Background(), func(context.Context) error { return errNetwork })
	assert.ErrorIs(t, err, errNetwork)
	assert.Zero(t, api.refreshCalls)
}

func TestSession_ConcurrentRefreshesCollapse(t *testing.T) {
	api := &fakeAPI{refreshDelay: 50 * time.Millisecond}
	s := NewSession(api)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Do(context.Background(), func() func(context.Context) error {
				first := true
				return func(context.Context) error {
					if first {
						first = false
						return unauthorized()
					}
					return nil
				}
			}())
		}()
	}
	wg.Wait()

	assert.Less(t, atomic.LoadInt32(&api.refreshCalls), int32(5))
}

func TestSession_StartStop(t *testing.T) {
	api := &fakeAPI{}
	s := NewSession(api)

	s.Start(context.Background(), 10*time.Millisecond)
	s.Start(context.Background(), 10*time.Millisecond)

	require.Eventually(t, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return api.meCalls >= 3
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	assert.Equal(t, StateAuthenticated, s.State())

	api.mu.Lock()
	after := api.meCalls
	api.mu.Unlock()
	time.Sleep(30 * time.Millisecond)
	api.mu.Lock()
	assert.Equal(t, after, api.meCalls, "no checks after Stop")
	api.mu.Unlock()

	s.Stop()
}

func TestSession_StartStopsWithContext(t *testing.T) {
	api := &fakeAPI{}
	s := NewSession(api)
	ctx, cancel := context.WithCancel(context.Background())

	s.Start(ctx, time.Hour)
	require.Eventually(t, func() bool { return s.State() == StateAuthenticated }, time.Second, 5*time.Millisecond)

	cancel()
	s.Stop()
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "uninitialized", StateUninitialized.String())
	assert.Equal(t, "checking", StateChecking.String())
	assert.Equal(t, "authenticated", StateAuthenticated.String())
	assert.Equal(t, "unauthenticated", StateUnauthenticated.String())
	assert.Equal(t, "unknown", State(42).String())
}
