package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		wantLevel zapcore.Level
		wantErr   bool
	}{
		{name: "default", level: "", wantLevel: zapcore.InfoLevel},
		{name: "debug", level: "debug", wantLevel: zapcore.DebugLevel},
		{name: "error", level: "error", wantLevel: zapcore.ErrorLevel},
		{name: "unknown", level: "loud", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewLogger(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Desugar().Core().Enabled(tt.wantLevel))
			if tt.wantLevel > zapcore.DebugLevel {
				assert.False(t, got.Desugar().Core().Enabled(tt.wantLevel-1))
			}
		})
	}
}
