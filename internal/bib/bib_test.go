package bib

import "testing"

func TestFormat(t *testing.T) {
	got := Format("5", 1)
	if got != "5 - 0001" {
		t.Fatalf("got %q, want %q", got, "5 - 0001")
	}

	got = Format("21", 142)
	if got != "21 - 0142" {
		t.Fatalf("got %q, want %q", got, "21 - 0142")
	}
}

func TestNext(t *testing.T) {
	tests := []struct {
		name     string
		label    string
		existing []string
		want     string
	}{
		{
			name:     "empty_starts_at_one",
			label:    "5",
			existing: nil,
			want:     "5 - 0001",
		},
		{
			name:     "increments_past_max",
			label:    "5",
			existing: []string{"5 - 0001", "5 - 0003"},
			want:     "5 - 0004",
		},
		{
			name:     "ignores_other_distances",
			label:    "10",
			existing: []string{"5 - 0009", "10 - 0002", "21 - 0100"},
			want:     "10 - 0003",
		},
		{
			name:     "skips_unparseable_suffix",
			label:    "5",
			existing: []string{"5 - abc", "5 - 0002"},
			want:     "5 - 0003",
		},
		{
			name:     "label_trimmed",
			label:    " 5 ",
			existing: []string{"5 - 0007"},
			want:     "5 - 0008",
		},
		{
			name:     "only_garbage_starts_at_one",
			label:    "5",
			existing: []string{"something else", "10 - 0044"},
			want:     "5 - 0001",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			got := Next(tt.label, tt.existing)
			if got != tt.want {
				t.Fatalf("Next(%q, %v) = %q, want %q", tt.label, tt.existing, got, tt.want)
			}
		})
	}
}
