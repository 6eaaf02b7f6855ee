package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cassiomorais/finance/internal/domain/account"
	domainErrors "github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/cassiomorais/finance/internal/infrastructure/observability"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Test Helpers ---

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
	keys []string
	err  error
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]bool)}
}

func (l *fakeLocker) WithLock(ctx context.Context, key string, _ time.Duration, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	if l.err != nil {
		l.mu.Unlock()
		return l.err
	}
	if l.held[key] {
		l.mu.Unlock()
		return domainErrors.ErrLockAcquisitionFailed
	}
	l.held[key] = true
	l.keys = append(l.keys, key)
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}()
	return fn(ctx)
}

func setupRunner(locker Locker, retries int) (*Runner, *observability.Metrics) {
	metrics := observability.NewMetrics("test", prometheus.NewRegistry())
	return NewRunner(locker, metrics, zerolog.Nop(), Config{
		LockTTL:    time.Second,
		MaxRetries: retries,
		RetryDelay: time.Millisecond,
	}), metrics
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

// --- Runner ---

func TestRunOnce_SuccessIsCounted(t *testing.T) {
	locker := newFakeLocker()
	r, metrics := setupRunner(locker, 3)
	calls := 0

	status := r.RunOnce(context.Background(), Job{Name: "demo", Run: func(context.Context) error {
		calls++
		return nil
	}})

	assert.Equal(t, StatusSuccess, status)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"job:demo"}, locker.keys)
	assert.Equal(t, 1.0, counterValue(t, metrics.WorkerJobRuns.WithLabelValues("demo", StatusSuccess)))
}

func TestRunOnce_RetriesTransientFailures(t *testing.T) {
	r, _ := setupRunner(newFakeLocker(), 3)
	calls := 0

	status := r.RunOnce(context.Background(), Job{Name: "flaky", Run: func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	}})

	assert.Equal(t, StatusSuccess, status)
	assert.Equal(t, 3, calls)
}

func TestRunOnce_ExhaustedRetriesReportFailure(t *testing.T) {
	r, metrics := setupRunner(newFakeLocker(), 2)
	calls := 0

	status := r.RunOnce(context.Background(), Job{Name: "broken", Run: func(context.Context) error {
		calls++
		return errors.New("db down")
	}})

	assert.Equal(t, StatusFailure, status)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1.0, counterValue(t, metrics.WorkerJobRuns.WithLabelValues("broken", StatusFailure)))
}

func TestRunOnce_SkipsWhenLockHeldElsewhere(t *testing.T) {
	locker := newFakeLocker()
	locker.held["job:demo"] = true
	r, metrics := setupRunner(locker, 1)
	called := false

	status := r.RunOnce(context.Background(), Job{Name: "demo", Run: func(context.Context) error {
		called = true
		return nil
	}})

	assert.Equal(t, StatusSkipped, status)
	assert.False(t, called)
	assert.Equal(t, 1.0, counterValue(t, metrics.WorkerJobRuns.WithLabelValues("demo", StatusSkipped)))
}

func TestRunOnce_LockErrorIsFailure(t *testing.T) {
	locker := newFakeLocker()
	locker.err = errors.New("redis unreachable")
	r, _ := setupRunner(locker, 1)

	status := r.RunOnce(context.Background(), Job{Name: "demo", Run: func(context.Context) error { return nil }})

	assert.Equal(t, StatusFailure, status)
}

func TestRun_StopsOnCancel(t *testing.T) {
	r, _ := setupRunner(newFakeLocker(), 1)
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	runs := 0
	job := Job{Name: "tick", Interval: 5 * time.Millisecond, Run: func(context.Context) error {
		mu.Lock()
		runs++
		mu.Unlock()
		return nil
	}}

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, job) }()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return runs >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("runner did not stop after cancel")
	}
}

// --- Jobs ---

type fakeTokens struct {
	before time.Time
	n      int64
	err    error
}

func (f *fakeTokens) PurgeStale(_ context.Context, before time.Time) (int64, error) {
	f.before = before
	return f.n, f.err
}

func TestTokenCleanupJob(t *testing.T) {
	metrics := observability.NewMetrics("test", prometheus.NewRegistry())
	tokens := &fakeTokens{n: 4}

	job := TokenCleanupJob(tokens, metrics, zerolog.Nop(), time.Minute)
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, JobTokenCleanup, job.Name)
	assert.WithinDuration(t, time.Now(), tokens.before, time.Second)
	assert.Equal(t, 4.0, counterValue(t, metrics.TokensPurged))

	tokens.err = errors.New("boom")
	assert.Error(t, job.Run(context.Background()))
}

type fakeDrift struct {
	drifts []account.BalanceDrift
	calls  int
}

func (f *fakeDrift) Drift(context.Context) ([]account.BalanceDrift, error) {
	f.calls++
	return f.drifts, nil
}

func TestBalanceDriftJob_ExportsGauges(t *testing.T) {
	metrics := observability.NewMetrics("test", prometheus.NewRegistry())
	repo := &fakeDrift{drifts: []account.BalanceDrift{
		{AccountID: uuid.New(), Stored: 1300, Expected: 1000},
		{AccountID: uuid.New(), Stored: 500, Expected: 700},
	}}

	job := BalanceDriftJob(repo, metrics, zerolog.Nop(), time.Minute)
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, 2.0, gaugeValue(t, metrics.BalanceDriftAccounts))
	assert.Equal(t, 500.0, gaugeValue(t, metrics.BalanceDriftAbsolute))

	repo.drifts = nil
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 0.0, gaugeValue(t, metrics.BalanceDriftAccounts))
	assert.Equal(t, 2, repo.calls)
}

type fakeCleaner struct{ n int64 }

func (f *fakeCleaner) Cleanup(context.Context) (int64, error) { return f.n, nil }

func TestIdempotencyCleanupJob(t *testing.T) {
	job := IdempotencyCleanupJob(&fakeCleaner{n: 2}, zerolog.Nop(), time.Minute)

	assert.Equal(t, JobIdempotencyCleanup, job.Name)
	assert.NoError(t, job.Run(context.Background()))
}
