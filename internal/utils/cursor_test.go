package utils

import (
	"testing"
	"time"
)

func TestRunnerCursor_RoundTrip(t *testing.T) {
	at := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	id := "e42b6ed3-0af3-49f0-9dcd-37aa7ed8c980"

	cur, err := EncodeRunnerCursor(at, id)
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}

	got, err := DecodeRunnerCursor(cur)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if !got.CreatedAt.Equal(at) || got.ID != id {
		t.Fatalf("round trip = %+v", got)
	}
}

func TestDecodeRunnerCursor_Rejections(t *testing.T) {
	emptyPayload, _ := EncodeRunnerCursor(time.Time{}, "")

	for _, cursor := range []string{"", "!!not-base64!!", "bm90IGpzb24", emptyPayload} {
		if _, err := DecodeRunnerCursor(cursor); err == nil {
			t.Fatalf("expected error for cursor %q", cursor)
		}
	}
}

func TestJobCursor_RoundTrip(t *testing.T) {
	at := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)

	cur, err := EncodeJobCursor(at, "j1")
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}

	got, err := DecodeJobCursor(cur)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if !got.UpdatedAt.Equal(at) || got.ID != "j1" {
		t.Fatalf("round trip = %+v", got)
	}
}
