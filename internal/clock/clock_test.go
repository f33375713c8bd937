package clock

import (
	"context"
	"testing"
	"time"
)

func TestManual(t *testing.T) {
	ctx := context.Background()
	c := NewManual(1_000)

	now, err := c.Now(ctx)
	if err != nil || now != 1_000 {
		t.Fatalf("Now = %d, %v; want 1000", now, err)
	}

	c.Advance(50)
	if now, _ = c.Now(ctx); now != 1_050 {
		t.Fatalf("after Advance got %d, want 1050", now)
	}

	c.Set(900)
	if now, _ = c.Now(ctx); now != 900 {
		t.Fatalf("after Set got %d, want 900", now)
	}
}

func TestSystem(t *testing.T) {
	before := time.Now().Unix()
	now, err := System{}.Now(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if now < before || now > time.Now().Unix() {
		t.Fatalf("system time %d out of range", now)
	}
}
