package reports

import (
	"strings"
	"time"

	"github.com/surigaorunners/racereg/internal/domain/runner"
)

// Criteria is the multi-criteria runner filter. Nil fields are
// "don't care"; set fields are combined with logical AND.
type Criteria struct {
	EventID     *string
	DistanceID  *string
	ShirtSize   *runner.ShirtSize
	Gender      *runner.Gender
	Verified    *bool
	AgeCategory *AgeCategory
}

func (c Criteria) Empty() bool {
	return c.EventID == nil &&
		c.DistanceID == nil &&
		c.ShirtSize == nil &&
		c.Gender == nil &&
		c.Verified == nil &&
		c.AgeCategory == nil
}

// Matches applies the criteria to a single runner; used by the
// in-memory repo and for property tests. The SQL filter in the
// postgres repo must agree with this.
func (c Criteria) Matches(r runner.Runner) bool {
	if c.EventID != nil && r.EventID != *c.EventID {
		return false
	}
	if c.DistanceID != nil && r.DistanceID != *c.DistanceID {
		return false
	}
	if c.ShirtSize != nil && r.ShirtSize != *c.ShirtSize {
		return false
	}
	if c.Gender != nil && r.Gender != *c.Gender {
		return false
	}
	if c.Verified != nil && r.IsVerified != *c.Verified {
		return false
	}
	if c.AgeCategory != nil && !c.AgeCategory.Contains(r.Age) {
		return false
	}
	return true
}

// SummaryContext carries the display values the criteria reference,
// resolved by the caller (event name/date, distance label).
type SummaryContext struct {
	EventName     string
	EventDate     time.Time
	DistanceLabel string
}

// Summary renders the human-readable filter line for the export:
// only the filters actually applied, or an explicit no-filter marker.
func (c Criteria) Summary(sctx SummaryContext) string {
	var parts []string

	if c.EventID != nil {
		parts = append(parts, "Event: "+sctx.EventName+" on "+sctx.EventDate.Format("2006-01-02"))
	}
	if c.DistanceID != nil {
		parts = append(parts, "Distance: "+sctx.DistanceLabel+" KM")
	}
	if c.Verified != nil {
		v := "No"
		if *c.Verified {
			v = "Yes"
		}
		parts = append(parts, "Verified: "+v)
	}
	if c.Gender != nil {
		parts = append(parts, "Gender: "+c.Gender.Display())
	}
	if c.ShirtSize != nil {
		parts = append(parts, "Shirt Size: "+string(*c.ShirtSize))
	}
	if c.AgeCategory != nil {
		parts = append(parts, "Age Category: "+c.AgeCategory.Display())
	}

	if len(parts) == 0 {
		return "All runners (no filters applied)"
	}

	return "Filters – " + strings.Join(parts, ", ")
}
