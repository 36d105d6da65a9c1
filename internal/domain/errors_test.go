package domain

import (
	"fmt"
	"testing"
)

func TestCodeForError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		code string
	}{
		{ErrConflictNotFound, CodeConflictNotFound},
		{ErrSwapNotFound, CodeSwapNotFound},
		{ErrFacultyNotFound, CodeFacultyNotFound},
		{ErrAlreadyResolved, CodeAlreadyResolved},
		{ErrRollbackWindowExpired, CodeRollbackWindowExpired},
		{ErrWeekLocked, CodeWeekLocked},
		{ErrInvalidSwapStatus, CodeInvalidStatus},
		{ErrInvalidInput, CodeValidation},
		{fmt.Errorf("lock swap: %w", ErrSwapNotFound), CodeSwapNotFound},
		{fmt.Errorf("connection reset"), CodePersistenceFailure},
	}
	for _, tc := range cases {
		if got := CodeForError(tc.err); got != tc.code {
			t.Fatalf("CodeForError(%v): expected %s, got %s", tc.err, tc.code, got)
		}
	}
}

func TestRiskLevelAtMost(t *testing.T) {
	t.Parallel()

	if !RiskLow.AtMost(RiskLow) || !RiskLow.AtMost(RiskHigh) || !RiskMedium.AtMost(RiskMedium) {
		t.Fatalf("risk ordering broken for valid levels")
	}
	if RiskHigh.AtMost(RiskMedium) || RiskMedium.AtMost(RiskLow) {
		t.Fatalf("higher risk must not pass a lower ceiling")
	}
	if RiskLevel("EXTREME").AtMost(RiskHigh) {
		t.Fatalf("unknown risk values must never pass a ceiling")
	}
}

func TestParseRiskLevel(t *testing.T) {
	t.Parallel()

	if got, err := ParseRiskLevel(""); err != nil || got != RiskLow {
		t.Fatalf("empty ceiling should default to LOW, got %v %v", got, err)
	}
	if got, err := ParseRiskLevel("MEDIUM"); err != nil || got != RiskMedium {
		t.Fatalf("MEDIUM should parse, got %v %v", got, err)
	}
	if _, err := ParseRiskLevel("extreme"); err == nil {
		t.Fatalf("unknown ceiling must be rejected")
	}
}
