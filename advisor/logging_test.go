package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	for _, cfg := range []LogConfig{{}, {Level: "debug", Format: "console"}, {Level: "warn", Format: "json"}} {
		logger, err := NewLogger(cfg)
		require.NoError(t, err)
		assert.NotNil(t, logger)
	}

	_, err := NewLogger(LogConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestNewLogger_TeesExtraCores(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger, err := NewLogger(LogConfig{Level: "error"}, core)
	require.NoError(t, err)

	logger.Info("catalog loaded")
	logger.Debug("hidden")

	assert.Equal(t, 1, logs.FilterMessage("catalog loaded").Len())
	assert.Zero(t, logs.FilterMessage("hidden").Len())
}
