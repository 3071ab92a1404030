package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestSanitizeKVsRedactsCredentials(t *testing.T) {
	got := sanitizeKVs([]interface{}{
		"quiz_id", "quiz-1",
		"token", "abc",
		"header", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJhbGljZSJ9.sig",
	})

	require.Equal(t, []interface{}{
		"quiz_id", "quiz-1",
		"token", "[REDACTED]",
		"header", "[REDACTED]",
	}, got)
}

func TestSanitizeKVsKeepsDanglingKey(t *testing.T) {
	got := sanitizeKVs([]interface{}{"a", 1, "dangling"})
	require.Equal(t, []interface{}{"a", 1, "dangling"}, got)
}

func TestNopLoggerIsUsable(t *testing.T) {
	l := OrNop(nil)
	l.Info("ignored", "k", "v")
	l.With("component", "test").Debug("ignored")
}

func TestNewModeLevels(t *testing.T) {
	cases := []struct {
		mode    string
		enabled zapcore.Level
		muted   zapcore.Level
	}{
		{mode: "", enabled: zapcore.InfoLevel, muted: zapcore.DebugLevel},
		{mode: "dev", enabled: zapcore.InfoLevel, muted: zapcore.DebugLevel},
		{mode: "quiet", enabled: zapcore.ErrorLevel, muted: zapcore.WarnLevel},
		{mode: "prod", enabled: zapcore.InfoLevel, muted: zapcore.DebugLevel},
	}
	for _, tc := range cases {
		l, err := New(tc.mode)
		require.NoError(t, err)
		core := l.SugaredLogger.Desugar().Core()
		require.True(t, core.Enabled(tc.enabled), "mode %q", tc.mode)
		require.False(t, core.Enabled(tc.muted), "mode %q", tc.mode)
	}

	l, err := New("debug")
	require.NoError(t, err)
	require.True(t, l.SugaredLogger.Desugar().Core().Enabled(zapcore.DebugLevel))
}
