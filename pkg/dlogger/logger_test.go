package dlogger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestGetLogger(t *testing.T) {
	for _, lvl := range []string{LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError} {
		l, err := GetLogger(lvl)
		require.NoError(t, err, lvl)
		require.NotNil(t, l)
	}

	l, err := GetLogger(LogLevelNone)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.ErrorLevel))

	l, err = GetLogger(LogLevelInfo)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))

	_, err = GetLogger("verbose")
	require.Error(t, err)
	assert.Panics(t, func() { _ = MustGetLogger("verbose") })
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := MustGetLogger(LogLevelInfo)
	assert.Equal(t, l, OrNop(l))
}
