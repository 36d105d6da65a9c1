package domain

import (
	"testing"
	"time"
)

func TestWeekOfNormalizesToMondayUTC(t *testing.T) {
	t.Parallel()

	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		in   time.Time
	}{
		{"monday midnight", monday},
		{"monday afternoon", time.Date(2026, 3, 2, 15, 30, 0, 0, time.UTC)},
		{"wednesday", time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)},
		{"sunday end of week", time.Date(2026, 3, 8, 23, 59, 59, 0, time.UTC)},
		{"non-utc zone", time.Date(2026, 3, 4, 9, 0, 0, 0, time.FixedZone("CET", 3600))},
	}
	for _, tc := range cases {
		if got := WeekOf(tc.in); !got.Equal(monday) {
			t.Fatalf("%s: expected %v, got %v", tc.name, monday, got)
		}
	}

	// A Sunday evening in a zone west of UTC is already Monday in UTC.
	pst := time.FixedZone("PST", -8*3600)
	sundayEveningPST := time.Date(2026, 3, 1, 20, 0, 0, 0, pst)
	if got := WeekOf(sundayEveningPST); !got.Equal(monday) {
		t.Fatalf("zone conversion must happen before week truncation, got %v", got)
	}
}

func TestConflictStatusTerminal(t *testing.T) {
	t.Parallel()

	if ConflictStatusNew.Terminal() {
		t.Fatalf("NEW must not be terminal")
	}
	if !ConflictStatusResolved.Terminal() {
		t.Fatalf("RESOLVED must be terminal")
	}
}
