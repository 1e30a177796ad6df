package tiling

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestDefaultLoggerDiscards(t *testing.T) {
	SetLogger(nil)
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("default logger is enabled")
	}
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { SetLogger(nil) })

	g := perspectiveGrid(t, 4)
	runJob(t, g, []Light{{Type: Point, Position: at(0, 0, 5), Range: 2}}, nil)

	g.Near = -1
	if _, err := NewJob(g, nil, nil); err == nil {
		t.Fatal("NewJob accepted a negative near plane")
	}

	out := buf.String()
	if !strings.Contains(out, "tiling: job finished") || !strings.Contains(out, "units=1") {
		t.Errorf("missing debug record:\n%s", out)
	}
	if !strings.Contains(out, "level=WARN") {
		t.Errorf("missing warning record:\n%s", out)
	}
}
