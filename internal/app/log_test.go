package app

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLineHandler_Handle(t *testing.T) {
	ts := time.Date(2024, 6, 15, 14, 30, 45, 0, time.UTC)

	tests := []struct {
		name    string
		opID    string
		level   slog.Level
		message string
		attrs   []slog.Attr
		want    string
	}{
		{
			name:    "basic info message",
			opID:    "op-123",
			level:   slog.LevelInfo,
			message: "deck created",
			want:    "2024-06-15T14:30:45Z\tINFO\top-123\tdeck created\n",
		},
		{
			name:    "warn level",
			opID:    "op-456",
			level:   slog.LevelWarn,
			message: "child count failed, scanning",
			want:    "2024-06-15T14:30:45Z\tWARN\top-456\tchild count failed, scanning\n",
		},
		{
			name:    "with record attrs",
			opID:    "op-789",
			level:   slog.LevelInfo,
			message: "deck deleted",
			attrs:   []slog.Attr{slog.String("id", "math"), slog.Int("removed", 4)},
			want:    "2024-06-15T14:30:45Z\tINFO\top-789\tdeck deleted\tid=math\tremoved=4\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &lineHandler{w: &buf, opID: tt.opID}

			r := slog.NewRecord(ts, tt.level, tt.message, 0)
			r.AddAttrs(tt.attrs...)

			if err := h.Handle(context.Background(), r); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}
			if got := buf.String(); got != tt.want {
				t.Errorf("Handle() output =\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}
}

func TestLineHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := &lineHandler{w: &buf, opID: "op-1", attrs: []slog.Attr{slog.String("a", "1")}}
	h2 := h.WithAttrs([]slog.Attr{slog.String("component", "store")}).(*lineHandler)

	if len(h.attrs) != 1 {
		t.Errorf("original handler attrs modified: got %d, want 1", len(h.attrs))
	}

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "saved", 0)
	r.AddAttrs(slog.String("key", "abc"))
	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	got := buf.String()
	if !strings.Contains(got, "component=store") || !strings.Contains(got, "key=abc") {
		t.Errorf("expected pre-set and record attrs, got: %q", got)
	}
}

func TestLineHandler_Enabled(t *testing.T) {
	all := &lineHandler{}
	warn := &lineHandler{level: slog.LevelWarn}
	ctx := context.Background()

	if !all.Enabled(ctx, slog.LevelDebug) {
		t.Error("handler without level should accept debug")
	}
	if warn.Enabled(ctx, slog.LevelInfo) {
		t.Error("warn handler accepted info")
	}
	if !warn.Enabled(ctx, slog.LevelError) {
		t.Error("warn handler rejected error")
	}
}

func TestNewLogger(t *testing.T) {
	dir := t.TempDir()
	var stderr bytes.Buffer

	logger, f, err := newLogger(dir, "test-op", &stderr, slog.LevelWarn)
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	logger.Info("quiet")
	logger.Warn("loud")
	f.Close()

	data, err := os.ReadFile(filepath.Join(dir, "flashdeck.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "quiet") || !strings.Contains(string(data), "loud") {
		t.Errorf("log file = %q, want both records", data)
	}
	if strings.Contains(stderr.String(), "quiet") || !strings.Contains(stderr.String(), "loud") {
		t.Errorf("stderr = %q, want only the warning", stderr.String())
	}
}
