package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug", "json")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = NewLogger("warn", "console")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
}

func TestNewLogger_Invalid(t *testing.T) {
	_, err := NewLogger("loud", "json")
	require.Error(t, err)

	_, err = NewLogger("info", "xml")
	require.Error(t, err)
}

func TestMetricsForTesting_AreIndependent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.RefreshTotal.WithLabelValues("success").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.RefreshTotal.WithLabelValues("success")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RefreshTotal.WithLabelValues("success")))
}
