package reports

// AgeCategory is a fixed age-range bucket used for filtering and
// exports. Bounds are inclusive on both sides; ages outside [0,75]
// fall into no bucket.
type AgeCategory string

const (
	Age20Below AgeCategory = "20_below"
	Age21To29  AgeCategory = "21_29"
	Age30To39  AgeCategory = "30_39"
	Age40To49  AgeCategory = "40_49"
	Age50To59  AgeCategory = "50_59"
	Age60To75  AgeCategory = "60_75"
)

var AgeCategories = []AgeCategory{
	Age20Below, Age21To29, Age30To39, Age40To49, Age50To59, Age60To75,
}

var ageBounds = map[AgeCategory][2]int{
	Age20Below: {0, 20},
	Age21To29:  {21, 29},
	Age30To39:  {30, 39},
	Age40To49:  {40, 49},
	Age50To59:  {50, 59},
	Age60To75:  {60, 75},
}

var ageDisplay = map[AgeCategory]string{
	Age20Below: "20 and below",
	Age21To29:  "21–29",
	Age30To39:  "30–39",
	Age40To49:  "40–49",
	Age50To59:  "50–59",
	Age60To75:  "60–75",
}

func (c AgeCategory) Valid() bool {
	_, ok := ageBounds[c]
	return ok
}

// Bounds returns the inclusive [low, high] range of the bucket.
func (c AgeCategory) Bounds() (low, high int, ok bool) {
	b, ok := ageBounds[c]

	if !ok {
		return 0, 0, false
	}

	return b[0], b[1], true
}

func (c AgeCategory) Display() string {
	if d, ok := ageDisplay[c]; ok {
		return d
	}
	return string(c)
}

// Contains reports whether an age falls into this bucket.
func (c AgeCategory) Contains(age int) bool {
	low, high, ok := c.Bounds()
	return ok && age >= low && age <= high
}

// CategoryFor returns the single bucket an age belongs to, if any.
func CategoryFor(age int) (AgeCategory, bool) {
	for _, c := range AgeCategories {
		if c.Contains(age) {
			return c, true
		}
	}
	return "", false
}
