package logger

import (
	"context"
	"log/slog"
	"testing"
)

func TestInitAndGet(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("Sync: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("Get returned nil after Init")
	}

	// Init is safe to call again.
	if err := Init(); err != nil {
		t.Fatalf("second Init: %v", err)
	}
	if Get() == nil {
		t.Fatal("Get returned nil after reinit")
	}
}

func TestLogWithFields(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	ctx := context.Background()
	log := Get()
	log.Info(ctx, "hello", String("k", "v"), Int("n", 1), Float64("f", 0.5))
	log.Warn(ctx, "careful", Any("payload", map[string]int{"a": 1}))
	log.Debug(ctx, "quiet")
}

func TestNamed(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	child := Named("hub")
	if child == nil {
		t.Fatal("Named returned nil")
	}
	child.Info(context.Background(), "from child")
}

func TestSetLevelString(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer SetLevel(slog.LevelInfo)

	for _, lvl := range []string{"debug", "info", "warn", "warning", "error", ""} {
		if err := SetLevelString(lvl); err != nil {
			t.Errorf("SetLevelString(%q): %v", lvl, err)
		}
	}
	if err := SetLevelString("loud"); err == nil {
		t.Error("SetLevelString accepted unknown level")
	}
}
