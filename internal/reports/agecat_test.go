package reports

import "testing"

func TestCategoryFor_Boundaries(t *testing.T) {
	tests := []struct {
		age  int
		want AgeCategory
		ok   bool
	}{
		{0, Age20Below, true},
		{20, Age20Below, true},
		{21, Age21To29, true},
		{29, Age21To29, true},
		{30, Age30To39, true},
		{39, Age30To39, true},
		{40, Age40To49, true},
		{49, Age40To49, true},
		{50, Age50To59, true},
		{59, Age50To59, true},
		{60, Age60To75, true},
		{75, Age60To75, true},
		{76, "", false},
		{-1, "", false},
		{120, "", false},
	}

	for _, tt := range tests {
		got, ok := CategoryFor(tt.age)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("CategoryFor(%d) = (%q, %v), want (%q, %v)", tt.age, got, ok, tt.want, tt.ok)
		}
	}
}

// Every age in range belongs to exactly one bucket.
func TestAgeCategories_Partition(t *testing.T) {
	for age := 0; age <= 75; age++ {
		hits := 0
		for _, c := range AgeCategories {
			if c.Contains(age) {
				hits++
			}
		}
		if hits != 1 {
			t.Fatalf("age %d matches %d buckets, want 1", age, hits)
		}
	}
}

func TestAgeCategory_Valid(t *testing.T) {
	if !Age21To29.Valid() {
		t.Fatalf("expected 21_29 to be valid")
	}
	if AgeCategory("18_25").Valid() {
		t.Fatalf("expected unknown bucket to be invalid")
	}
}
