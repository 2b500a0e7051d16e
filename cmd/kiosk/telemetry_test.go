package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.opentelemetry.io/contrib/bridges/otelslog"
)

func TestLibraryLogsReachTheLogFile(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	path := filepath.Join(t.TempDir(), "kiosk.log")
	shutdown, err := setupLogging(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	otelslog.NewLogger("github.com/koscakluka/ema-kiosk/core").Warn("discarded inbound frame", "reason", "stale")
	slog.Info("kiosk starting")
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	for _, want := range []string{"discarded inbound frame", "kiosk starting"} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("expected %q in the log file, got %s", want, data)
		}
	}
}
