package distance

import (
	"errors"
	"time"
)

// Distance is a race-length category within an event. Label is a
// numeric string such as "5" or "21" (kilometres).
type Distance struct {
	ID        string    `json:"id"`
	EventID   string    `json:"eventId"`
	Label     string    `json:"label"`
	Fee       *float64  `json:"fee,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var ErrNotFound = errors.New("distance not found")

// the raw label carried no digits at all, e.g. "fun run"
var ErrNonNumericLabel = errors.New("distance label must contain a numeric part")

type CreateDistanceRequest struct {
	EventID string   `json:"eventId" binding:"required"`
	Label   string   `json:"label" binding:"required,max=20"`
	Fee     *float64 `json:"fee" binding:"omitempty,gte=0"`
}

type UpdateDistanceRequest struct {
	Label string   `json:"label" binding:"required,max=20"`
	Fee   *float64 `json:"fee" binding:"omitempty,gte=0"`
}

// NormalizeLabel extracts the first run of digits from a raw label, so
// "5K", "21 km" and "10" all normalize to "5", "21", "10".
func NormalizeLabel(raw string) (string, error) {
	start := -1

	for i := 0; i < len(raw); i++ {
		c := raw[i]

		if c >= '0' && c <= '9' {
			if start == -1 {
				start = i
			}
			continue
		}

		if start != -1 {
			return raw[start:i], nil
		}
	}

	if start != -1 {
		return raw[start:], nil
	}

	return "", ErrNonNumericLabel
}
