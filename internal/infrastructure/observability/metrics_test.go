package observability

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("finance", reg)
	require.NotNil(t, m)

	m.RecordAuth("login", nil)
	m.RecordTransaction("create", "EXPENSE")
	m.RecordCache("summary", "hit")

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["finance_auth_events_total"])
	assert.True(t, names["finance_transactions_total"])
	assert.True(t, names["finance_cache_requests_total"])
}

func TestRecordAuth_Outcome(t *testing.T) {
	m := NewMetrics("finance", prometheus.NewRegistry())

	m.RecordAuth("refresh", nil)
	m.RecordAuth("refresh", errors.New("boom"))
	m.RecordAuth("refresh", errors.New("boom"))

	assert.Equal(t, 1.0, counterValue(t, m.AuthEvents.WithLabelValues("refresh", OutcomeSuccess)))
	assert.Equal(t, 2.0, counterValue(t, m.AuthEvents.WithLabelValues("refresh", OutcomeFailure)))
}

func TestRecord_NilReceiver(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordAuth("login", nil)
		m.RecordTransaction("delete", "INCOME")
		m.RecordCache("summary", "miss")
	})
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, "debug", parseLogLevel("DEBUG").String())
	assert.Equal(t, "warn", parseLogLevel("warning").String())
	assert.Equal(t, "info", parseLogLevel("nonsense").String())
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, c.Write(&out))
	return out.GetCounter().GetValue()
}
