package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starwatch/sentiment/internal/metrics"
)

func TestNewRegistersAndCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.IncCommentsProcessed()
	m.IncCommentsProcessed()
	m.IncCommentsFailed()
	m.AddSignalsWritten(5)
	m.IncEscalations()
	m.IncProviderFallbacks()
	m.IncReviewQueued()
	m.IncSubjectsDiscovered()
	m.ObserveProviderLatency("lexicon", 0.002)

	assert.InDelta(t, 2.0, testutil.ToFloat64(m.CommentsProcessed), 0.001)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.CommentsFailed), 0.001)
	assert.InDelta(t, 5.0, testutil.ToFloat64(m.SignalsWritten), 0.001)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.Escalations), 0.001)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestAddSignalsWrittenIgnoresNonPositive(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.AddSignalsWritten(0)
	m.AddSignalsWritten(-3)

	assert.InDelta(t, 0.0, testutil.ToFloat64(m.SignalsWritten), 0.001)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.IncCommentsProcessed()
		m.IncCommentsFailed()
		m.AddSignalsWritten(3)
		m.IncEscalations()
		m.IncProviderFallbacks()
		m.IncReviewQueued()
		m.IncSubjectsDiscovered()
		m.ObserveProviderLatency("model", 0.1)
	})
}
