package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupValidLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "WARN", "Error"} {
		logger, err := Setup(Config{Level: level})
		require.NoError(t, err, "Setup should succeed for level %q", level)
		require.NotNil(t, logger, "Setup should return a logger for level %q", level)
	}
}

func TestSetupInvalidLevelFallsBack(t *testing.T) {
	logger, err := Setup(Config{Level: "verbose"})
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo),
		"fallback level should enable info")
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug),
		"fallback level should not enable debug")
}

func TestContextRoundTrip(t *testing.T) {
	base := slog.Default()
	tagged := base.With("component", "test")

	ctx := WithLogger(context.Background(), tagged)
	assert.Same(t, tagged, FromContext(ctx))
	assert.Same(t, tagged, FromContextOrDefault(ctx, base))

	// Without an attached logger the fallback wins.
	assert.Same(t, base, FromContextOrDefault(context.Background(), base))
	assert.NotNil(t, FromContext(context.Background()))
}
