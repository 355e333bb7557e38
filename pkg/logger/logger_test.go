package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: " WARN ", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "", want: slog.LevelInfo},
		{in: "verbose", want: slog.LevelInfo},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, parseLevel(tt.in).Level(), tt.in)
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		contains []string
		empty    bool
	}{
		{
			name:     "json by default",
			env:      map[string]string{},
			contains: []string{`"service":"fitcoach"`, `"msg":"plan generation started"`},
		},
		{
			name:     "text format",
			env:      map[string]string{"LOG_FORMAT": "TEXT"},
			contains: []string{"service=fitcoach", `msg="plan generation started"`},
		},
		{
			name:  "level filters info",
			env:   map[string]string{"LOG_LEVEL": "error"},
			empty: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := newLogger(&buf, func(k string) string { return tt.env[k] })
			log.Info("plan generation started")
			if tt.empty {
				require.Zero(t, buf.Len())
				return
			}
			for _, want := range tt.contains {
				require.Contains(t, buf.String(), want)
			}
		})
	}
}
