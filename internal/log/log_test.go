package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	logger := NewLogger("info")

	assert.NotNil(t, logger)
	logger.Info("test message")
	assert.IsType(t, &zap.Logger{}, logger)
}

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		enabled  zapcore.Level
		disabled zapcore.Level
	}{
		{"debug", "debug", zapcore.DebugLevel, zapcore.InvalidLevel},
		{"warn", "warn", zapcore.WarnLevel, zapcore.InfoLevel},
		{"empty falls back to info", "", zapcore.InfoLevel, zapcore.DebugLevel},
		{"unknown falls back to info", "verbose", zapcore.InfoLevel, zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(tt.level)
			assert.True(t, logger.Core().Enabled(tt.enabled))
			if tt.disabled != zapcore.InvalidLevel {
				assert.False(t, logger.Core().Enabled(tt.disabled))
			}
		})
	}
}
