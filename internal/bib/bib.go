// Package bib computes sequential bib numbers per distance.
// Format: "<label> - <4-digit-zero-padded-sequence>", e.g. "10 - 0007".
package bib

import (
	"fmt"
	"strconv"
	"strings"
)

const separator = " - "

// Format renders a bib number for a distance label and sequence.
func Format(label string, seq int) string {
	return fmt.Sprintf("%s%s%04d", strings.TrimSpace(label), separator, seq)
}

// Next scans the bib numbers already issued for a distance and returns
// the next one. Bibs with a foreign prefix or an unparseable suffix
// are data anomalies, not errors; they are skipped. With no usable
// bib, numbering starts at 0001.
func Next(label string, existing []string) string {
	prefix := strings.TrimSpace(label) + separator

	max := 0

	for _, b := range existing {
		n, ok := parseSeq(prefix, b)

		if !ok {
			continue
		}

		if n > max {
			max = n
		}
	}

	return Format(label, max+1)
}

func parseSeq(prefix, bibNumber string) (int, bool) {
	if !strings.HasPrefix(bibNumber, prefix) {
		return 0, false
	}

	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(bibNumber, prefix)))

	if err != nil || n < 0 {
		return 0, false
	}

	return n, true
}
