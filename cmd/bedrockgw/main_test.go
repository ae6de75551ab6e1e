package main

import (
	"context"
	"log/slog"
	"testing"
)

func TestSetupLogger(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	tests := []struct {
		level       string
		enabled     slog.Level
		notEnabled  slog.Level
		checkHidden bool
	}{
		{"debug", slog.LevelDebug, 0, false},
		{"info", slog.LevelInfo, slog.LevelDebug, true},
		{"warn", slog.LevelWarn, slog.LevelInfo, true},
		{"error", slog.LevelError, slog.LevelWarn, true},
		{"unknown", slog.LevelInfo, slog.LevelDebug, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			setupLogger(tt.level)
			ctx := context.Background()

			if !slog.Default().Enabled(ctx, tt.enabled) {
				t.Errorf("level %v should be enabled", tt.enabled)
			}
			if tt.checkHidden && slog.Default().Enabled(ctx, tt.notEnabled) {
				t.Errorf("level %v should be disabled", tt.notEnabled)
			}
		})
	}
}
