package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		wantLevel zapcore.Level
	}{
		{
			name:      "development config",
			config:    Config{Level: "debug", Environment: "development", ServiceName: "importer"},
			wantLevel: zapcore.DebugLevel,
		},
		{
			name:      "production config",
			config:    Config{Level: "info", Environment: "production", ServiceName: "importer"},
			wantLevel: zapcore.InfoLevel,
		},
		{
			name:      "invalid level defaults to info",
			config:    Config{Level: "chatty", Environment: "development", ServiceName: "importer"},
			wantLevel: zapcore.InfoLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.config)
			require.NoError(t, err)
			assert.True(t, l.zap.Core().Enabled(tt.wantLevel))
		})
	}
}

func TestLoggerOutput(t *testing.T) {
	core, observed := observer.New(zap.InfoLevel)
	l := &Logger{zap: zap.New(core)}

	l.Info("import started", zap.String("period", "2024-02-01"))
	require.Equal(t, 1, observed.Len())
	entry := observed.All()[0]
	assert.Equal(t, "import started", entry.Message)
	assert.Equal(t, "2024-02-01", entry.ContextMap()["period"])

	observed.TakeAll()
	l.Error("batch write failed", errors.New("boom"))
	require.Equal(t, 1, observed.Len())
	assert.Equal(t, "boom", observed.All()[0].ContextMap()["error"])

	// debug is below the observer level
	observed.TakeAll()
	l.Debug("noise")
	assert.Equal(t, 0, observed.Len())
}

func TestWith(t *testing.T) {
	core, observed := observer.New(zap.InfoLevel)
	l := &Logger{zap: zap.New(core)}

	child := l.With(zap.Int("fideid", 1503014))
	child.Info("player imported")

	require.Equal(t, 1, observed.Len())
	assert.EqualValues(t, 1503014, observed.All()[0].ContextMap()["fideid"])
}
