package utils

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

// Keyset cursors for the admin listings: opaque base64 over the sort
// key so clients cannot fabricate offsets.

type RunnerCursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
}

func EncodeRunnerCursor(createdAt time.Time, id string) (string, error) {
	b, err := json.Marshal(RunnerCursor{CreatedAt: createdAt, ID: id})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeRunnerCursor(cursor string) (RunnerCursor, error) {
	if cursor == "" {
		return RunnerCursor{}, errors.New("empty cursor")
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return RunnerCursor{}, err
	}

	var c RunnerCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return RunnerCursor{}, err
	}
	if c.ID == "" || c.CreatedAt.IsZero() {
		return RunnerCursor{}, errors.New("invalid cursor payload")
	}
	return c, nil
}

type JobCursor struct {
	UpdatedAt time.Time `json:"updatedAt"`
	ID        string    `json:"id"`
}

func EncodeJobCursor(updatedAt time.Time, id string) (string, error) {
	b, err := json.Marshal(JobCursor{UpdatedAt: updatedAt, ID: id})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeJobCursor(cursor string) (JobCursor, error) {
	if cursor == "" {
		return JobCursor{}, errors.New("empty cursor")
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return JobCursor{}, err
	}

	var c JobCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return JobCursor{}, err
	}
	if c.ID == "" || c.UpdatedAt.IsZero() {
		return JobCursor{}, errors.New("invalid cursor payload")
	}
	return c, nil
}
