package hub

import (
	"fmt"
	"testing"
	"time"
)

func TestAccumulatorBoundsEntries(t *testing.T) {
	a := NewAccumulator(3, time.Hour)
	for i := 0; i < 5; i++ {
		a.Append("u1", fmt.Sprintf("line %d", i))
	}
	got := a.History("u1")
	if len(got) != 3 {
		t.Fatalf("history length = %d, want 3", len(got))
	}
	if got[0].Text != "line 2" || got[2].Text != "line 4" {
		t.Errorf("kept wrong entries: %v", got)
	}
}

func TestAccumulatorExpiresEntries(t *testing.T) {
	a := NewAccumulator(10, time.Minute)
	now := time.Unix(1000, 0)
	a.now = func() time.Time { return now }

	a.Append("u1", "old line")
	now = now.Add(2 * time.Minute)
	a.Append("u1", "fresh line")

	if got := a.FullText("u1"); got != "fresh line" {
		t.Errorf("full text = %q, want only the fresh line", got)
	}
}

func TestAccumulatorIsolatesUsers(t *testing.T) {
	a := NewAccumulator(0, 0)
	a.Append("u1", "for the first user")
	if got := a.FullText("u2"); got != "" {
		t.Errorf("u2 text = %q, want empty", got)
	}
}
