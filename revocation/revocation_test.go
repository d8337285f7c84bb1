package revocation

import (
	"context"
	"testing"
	"time"
)

func TestMemorySetAddAndContains(t *testing.T) {
	ctx := context.Background()
	set := NewMemorySet()

	ok, err := set.Contains(ctx, "jti-1")
	if err != nil {
		t.Fatalf("Contains: %v", err)
	}
	if ok {
		t.Errorf("Contains on an empty set returned true")
	}

	if err := set.Add(ctx, "jti-1", time.Minute); err != nil {
		t.Fatalf("Add: %v", err)
	}

	ok, err = set.Contains(ctx, "jti-1")
	if err != nil {
		t.Fatalf("Contains: %v", err)
	}
	if !ok {
		t.Errorf("Contains after Add returned false")
	}
}

func TestMemorySetExpires(t *testing.T) {
	ctx := context.Background()
	set := NewMemorySet()

	if err := set.Add(ctx, "jti-1", time.Millisecond); err != nil {
		t.Fatalf("Add: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	ok, err := set.Contains(ctx, "jti-1")
	if err != nil {
		t.Fatalf("Contains: %v", err)
	}
	if ok {
		t.Errorf("Contains returned true for an expired entry")
	}
}

func TestMemorySetIsolatesKeys(t *testing.T) {
	ctx := context.Background()
	set := NewMemorySet()

	if err := set.Add(ctx, "jti-1", time.Minute); err != nil {
		t.Fatalf("Add: %v", err)
	}

	ok, err := set.Contains(ctx, "jti-2")
	if err != nil {
		t.Fatalf("Contains: %v", err)
	}
	if ok {
		t.Errorf("Contains(jti-2) returned true after only jti-1 was added")
	}
}
