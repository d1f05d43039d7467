package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_Level(t *testing.T) {
	log := New("debug", "json")
	require.True(t, log.Core().Enabled(zapcore.DebugLevel))

	log = New("WARN", "console")
	require.False(t, log.Core().Enabled(zapcore.InfoLevel))
	require.True(t, log.Core().Enabled(zapcore.WarnLevel))
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	log := New("chatty", "")
	require.False(t, log.Core().Enabled(zapcore.DebugLevel))
	require.True(t, log.Core().Enabled(zapcore.InfoLevel))
}
