package reports

import (
	"fmt"
	"sort"

	"github.com/surigaorunners/racereg/internal/domain/runner"
)

// EventStat is one row of the per-event verification table.
type EventStat struct {
	Event    string `json:"event"`
	Total    int    `json:"total"`
	Verified int    `json:"verified"`
	Percent  string `json:"percent"`
}

// Stats is the aggregate view the admin dashboard renders: totals plus
// breakdowns over the same buckets the filter form offers, and a
// per-event verification table.
type Stats struct {
	Total         int            `json:"total"`
	Verified      int            `json:"verified"`
	Unverified    int            `json:"unverified"`
	WithBib       int            `json:"withBib"`
	ByGender      map[string]int `json:"byGender"`
	ByShirtSize   map[string]int `json:"byShirtSize"`
	ByAgeCategory map[string]int `json:"byAgeCategory"`
	ByDistance    map[string]int `json:"byDistance"`
	ByEvent       []EventStat    `json:"byEvent"`
}

// ComputeStats aggregates the already-filtered details in one pass.
func ComputeStats(details []runner.Detail) Stats {
	s := Stats{
		ByGender:      make(map[string]int),
		ByShirtSize:   make(map[string]int),
		ByAgeCategory: make(map[string]int),
		ByDistance:    make(map[string]int),
	}

	type eventCount struct {
		total    int
		verified int
	}
	perEvent := make(map[string]*eventCount)

	for _, d := range details {
		s.Total++
		if d.IsVerified {
			s.Verified++
		} else {
			s.Unverified++
		}
		if d.BibNumber != nil {
			s.WithBib++
		}

		s.ByGender[d.Gender.Display()]++
		s.ByShirtSize[string(d.ShirtSize)]++
		if cat, ok := CategoryFor(d.Age); ok {
			s.ByAgeCategory[cat.Display()]++
		}
		s.ByDistance[d.DistanceLabel+" KM"]++

		ec := perEvent[d.EventName]
		if ec == nil {
			ec = &eventCount{}
			perEvent[d.EventName] = ec
		}
		ec.total++
		if d.IsVerified {
			ec.verified++
		}
	}

	s.ByEvent = make([]EventStat, 0, len(perEvent))
	for name, ec := range perEvent {
		pct := 0.0
		if ec.total > 0 {
			pct = float64(ec.verified) / float64(ec.total) * 100
		}
		s.ByEvent = append(s.ByEvent, EventStat{
			Event:    name,
			Total:    ec.total,
			Verified: ec.verified,
			Percent:  fmt.Sprintf("%.0f%%", pct),
		})
	}
	sort.Slice(s.ByEvent, func(i, j int) bool { return s.ByEvent[i].Event < s.ByEvent[j].Event })

	return s
}
