package clock

import (
	"testing"
	"time"
)

func TestMidnight(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	in := time.Date(2026, 10, 16, 1, 30, 0, 0, time.UTC) // 22:30 on the 15th in BRT

	got := Midnight(in, loc)
	want := time.Date(2026, 10, 15, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("Midnight = %v, want %v", got, want)
	}

	if got := Midnight(want, loc); !got.Equal(want) {
		t.Errorf("Midnight should be idempotent, got %v", got)
	}
}

func TestManual(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewManual(start)
	c.Advance(36 * time.Hour)
	if want := start.Add(36 * time.Hour); !c.Now().Equal(want) {
		t.Errorf("Now = %v, want %v", c.Now(), want)
	}
	c.Set(start)
	if !c.Now().Equal(start) {
		t.Errorf("Now = %v after Set, want %v", c.Now(), start)
	}
}
