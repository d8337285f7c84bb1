package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCursorRoundTrip(t *testing.T) {
	id := uuid.New()
	sortAt := time.Unix(1700000000, 123456000)

	token := encodeCursor(sortAt, id)
	got, err := decodeCursor(token)
	if err != nil {
		t.Fatalf("decodeCursor: %v", err)
	}
	if got.ID != id {
		t.Errorf("ID = %v, want %v", got.ID, id)
	}
	if !got.SortAt.Equal(sortAt) {
		t.Errorf("SortAt = %v, want %v", got.SortAt, sortAt)
	}
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	tests := []string{
		"",
		"not-base64url!!!",
		"aGVsbG8", // valid base64url, but not the "nanos.uuid" shape
	}
	for _, tok := range tests {
		if _, err := decodeCursor(tok); err == nil {
			t.Errorf("decodeCursor(%q) unexpectedly succeeded", tok)
		}
	}
}

func TestNormalizedLimit(t *testing.T) {
	tests := []struct {
		name string
		p    ListParams
		want int
	}{
		{"zero defaults", ListParams{Limit: 0}, DefaultPageLimit},
		{"negative defaults", ListParams{Limit: -5}, DefaultPageLimit},
		{"within range passes through", ListParams{Limit: 50}, 50},
		{"clamped to max", ListParams{Limit: 1000}, MaxPageLimit},
		{"exactly max", ListParams{Limit: MaxPageLimit}, MaxPageLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.NormalizedLimit(); got != tt.want {
				t.Errorf("NormalizedLimit() = %d, want %d", got, tt.want)
			}
		})
	}
}
