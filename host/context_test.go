package host

import (
	"testing"
	"time"
)

func TestNewContextDefaults(t *testing.T) {
	ctx := New(8)
	if ctx.SwfVersion != 8 {
		t.Errorf("SwfVersion = %d, want 8", ctx.SwfVersion)
	}
	if ctx.Stage == nil || ctx.Library == nil || ctx.Queue == nil {
		t.Fatalf("context is missing its stage or library")
	}
	if ctx.Display().Library != ctx.Library {
		t.Errorf("Display() does not share the embedded context")
	}
	if ctx.External.Available() {
		t.Errorf("null external interface reports available")
	}
}

func TestTimer(t *testing.T) {
	ctx := New(8)
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx.Start = start
	ctx.Now = func() time.Time { return start.Add(1500 * time.Millisecond) }
	if got := ctx.Timer(); got != 1500 {
		t.Errorf("Timer() = %v, want 1500", got)
	}
}
