package dates_test

import (
	"testing"
	"time"

	"planpilot/internal/dates"
)

func TestResolveCalendarPhrases(t *testing.T) {
	// Monday, March 2 2026, 10:00 UTC.
	ref := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	t.Run("tomorrow at 3pm", func(t *testing.T) {
		got, ok := dates.Resolve("tomorrow at 3pm", ref)
		if !ok {
			t.Fatal("Resolve returned unresolved")
		}
		if got.Day() != 3 || got.Month() != time.March || got.Hour() != 15 {
			t.Errorf("Resolve = %v, want March 3 15:00", got)
		}
	})

	t.Run("next friday", func(t *testing.T) {
		got, ok := dates.Resolve("next friday", ref)
		if !ok {
			t.Fatal("Resolve returned unresolved")
		}
		if got.Weekday() != time.Friday {
			t.Errorf("Resolve weekday = %v, want Friday", got.Weekday())
		}
		if !got.After(ref) {
			t.Errorf("Resolve = %v, want after reference %v", got, ref)
		}
	})
}

func TestResolveDateStrings(t *testing.T) {
	ref := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	got, ok := dates.Resolve("2026-04-01", ref)
	if !ok {
		t.Fatal("Resolve returned unresolved")
	}
	if got.Year() != 2026 || got.Month() != time.April || got.Day() != 1 {
		t.Errorf("Resolve = %v, want 2026-04-01", got)
	}
}

func TestResolveUnresolved(t *testing.T) {
	ref := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	tests := []string{
		"",
		"   ",
		"xyzzy frobnicate",
	}
	for _, input := range tests {
		if got, ok := dates.Resolve(input, ref); ok {
			t.Errorf("Resolve(%q) = %v, want unresolved", input, got)
		}
	}
}
