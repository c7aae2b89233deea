package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/Suhaibinator/panelgate/internal/config"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.LoggingConfig
		wantLevel zapcore.Level
		wantErr   bool
	}{
		{name: "defaults", cfg: config.LoggingConfig{}, wantLevel: zapcore.InfoLevel},
		{name: "json debug", cfg: config.LoggingConfig{Level: "debug", Format: "json"}, wantLevel: zapcore.DebugLevel},
		{name: "console warn", cfg: config.LoggingConfig{Level: "warn", Format: "console", DisableStacktrace: true}, wantLevel: zapcore.WarnLevel},
		{name: "bad level", cfg: config.LoggingConfig{Level: "loud"}, wantErr: true},
		{name: "bad format", cfg: config.LoggingConfig{Format: "xml"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.wantLevel))
			assert.False(t, logger.Core().Enabled(tt.wantLevel-1))
		})
	}
}
