package core

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureLogger struct {
	debugs int
	infos  int
	warns  int
	errors int
	last   string
}

func (l *captureLogger) Debug(string, ...any) { l.debugs++ }
func (l *captureLogger) Info(string, ...any)  { l.infos++ }
func (l *captureLogger) Warn(msg string, _ ...any) {
	l.warns++
	l.last = msg
}
func (l *captureLogger) Error(string, ...any) { l.errors++ }

type metricsCall struct {
	op      string
	success bool
}

type captureMetricsRecorder struct {
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	c.calls = append(c.calls, metricsCall{op: op, success: success})
}

func (c *captureMetricsRecorder) has(op string, success bool) bool {
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

func TestNoopLogger(_ *testing.T) {
	logger := NoopLogger()
	logger.Debug("debug", "key", "value")
	logger.Info("info", "key", "value")
	logger.Warn("warn", "key", "value")
	logger.Error("error", "key", "value")
}

func TestStoreReportsOperations(t *testing.T) {
	logger := &captureLogger{}
	metrics := &captureMetricsRecorder{}
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)
	s := NewStore("observed", WithLogger(logger), WithMetricsRecorder(metrics), WithTracer(tracer))

	typ, err := s.NewArticleType("Rope")
	require.NoError(t, err)
	_, err = s.NewArticle(typ.ID+100, 1)
	require.Error(t, err)

	assert.True(t, metrics.has("new_article_type", true))
	assert.True(t, metrics.has("new_article", false))
	assert.Equal(t, 1, logger.debugs)
	assert.Equal(t, 1, logger.warns)
	assert.Equal(t, "store operation rejected", logger.last)

	records := tracer.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "success", records[0].Status)
	assert.Equal(t, "error", records[1].Status)
	assert.Contains(t, records[1].Error, "not found")
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	require.NoError(t, err)

	s := NewStore("prom", WithMetricsRecorder(rec))
	_, err = s.NewSection("Ops")
	require.NoError(t, err)
	_, err = s.NewSection("")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.operations.WithLabelValues("new_section", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.operations.WithLabelValues("new_section", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(rec.latency))

	_, err = NewPrometheusMetricsRecorder(reg)
	require.Error(t, err, "duplicate registration must fail")
}

func TestExpvarMetricsRecorder(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	assert.True(t, strings.HasPrefix(rec.Name(), "erpcore_store_metrics_"))
	rec.Observe(context.Background(), "arrive", true, 2*time.Millisecond)
	rec.Observe(context.Background(), "arrive", false, time.Millisecond)
	rec.Observe(context.Background(), "", true, time.Millisecond)

	stats := rec.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, int64(1), stats["arrive"].Success)
	assert.Equal(t, int64(1), stats["arrive"].Error)
	assert.InDelta(t, 3.0, stats["arrive"].TotalMS, 0.001)
}
