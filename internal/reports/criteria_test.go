package reports

import (
	"strings"
	"testing"
	"time"

	"github.com/surigaorunners/racereg/internal/domain/runner"
)

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func sampleRunner() runner.Runner {
	return runner.Runner{
		ID:         "r1",
		EventID:    "e1",
		DistanceID: "d1",
		FirstName:  "Juan",
		LastName:   "Dela Cruz",
		Age:        34,
		Gender:     runner.GenderMale,
		ShirtSize:  runner.SizeL,
		IsVerified: true,
	}
}

func TestCriteria_Empty(t *testing.T) {
	if !(Criteria{}).Empty() {
		t.Fatalf("zero criteria should be empty")
	}

	c := Criteria{EventID: strPtr("e1")}
	if c.Empty() {
		t.Fatalf("criteria with event filter should not be empty")
	}
}

func TestCriteria_Matches(t *testing.T) {
	female := runner.GenderFemale
	sizeL := runner.SizeL
	cat := Age30To39

	tests := []struct {
		name string
		c    Criteria
		want bool
	}{
		{"empty_matches_all", Criteria{}, true},
		{"event_match", Criteria{EventID: strPtr("e1")}, true},
		{"event_mismatch", Criteria{EventID: strPtr("e2")}, false},
		{"distance_mismatch", Criteria{DistanceID: strPtr("d9")}, false},
		{"gender_mismatch", Criteria{Gender: &female}, false},
		{"shirt_match", Criteria{ShirtSize: &sizeL}, true},
		{"verified_match", Criteria{Verified: boolPtr(true)}, true},
		{"verified_mismatch", Criteria{Verified: boolPtr(false)}, false},
		{"age_category_match", Criteria{AgeCategory: &cat}, true},
		{
			"all_filters_and",
			Criteria{EventID: strPtr("e1"), Verified: boolPtr(true), AgeCategory: &cat},
			true,
		},
		{
			"one_failing_filter_rejects",
			Criteria{EventID: strPtr("e1"), Verified: boolPtr(false)},
			false,
		},
	}

	r := sampleRunner()

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Matches(r); got != tt.want {
				t.Fatalf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCriteria_Summary(t *testing.T) {
	sctx := SummaryContext{
		EventName:     "Surigao City Run",
		EventDate:     time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC),
		DistanceLabel: "10",
	}

	got := (Criteria{}).Summary(sctx)
	if got != "All runners (no filters applied)" {
		t.Fatalf("empty summary = %q", got)
	}

	c := Criteria{
		EventID:    strPtr("e1"),
		DistanceID: strPtr("d1"),
		Verified:   boolPtr(true),
	}
	got = c.Summary(sctx)

	for _, want := range []string{
		"Event: Surigao City Run on 2025-07-20",
		"Distance: 10 KM",
		"Verified: Yes",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("summary %q missing %q", got, want)
		}
	}
}
