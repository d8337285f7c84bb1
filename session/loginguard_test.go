package session

import (
	"testing"
	"time"
)

func TestLoginGuardLocksOutAfterMaxAttempts(t *testing.T) {
	g := NewLoginGuard(3, time.Minute, time.Hour)
	const id = "user@example.com"

	if g.Locked(id) {
		t.Fatalf("identifier locked before any failures")
	}

	g.RecordFailure(id)
	g.RecordFailure(id)
	if g.Locked(id) {
		t.Fatalf("identifier locked before reaching maxAttempts")
	}

	g.RecordFailure(id)
	if !g.Locked(id) {
		t.Fatalf("identifier not locked after reaching maxAttempts")
	}
}

func TestLoginGuardRecordSuccessClearsFailures(t *testing.T) {
	g := NewLoginGuard(3, time.Minute, time.Hour)
	const id = "user@example.com"

	g.RecordFailure(id)
	g.RecordFailure(id)
	g.RecordSuccess(id)
	g.RecordFailure(id)

	if g.Locked(id) {
		t.Fatalf("identifier locked despite a cleared failure count")
	}
}

func TestLoginGuardLockoutExpires(t *testing.T) {
	g := NewLoginGuard(1, time.Minute, 5*time.Millisecond)
	const id = "user@example.com"

	g.RecordFailure(id)
	if !g.Locked(id) {
		t.Fatalf("identifier not locked immediately after maxAttempts=1 failure")
	}

	time.Sleep(20 * time.Millisecond)

	if g.Locked(id) {
		t.Fatalf("identifier still locked after the lockout duration elapsed")
	}
}

func TestLoginGuardIsolatesIdentifiers(t *testing.T) {
	g := NewLoginGuard(1, time.Minute, time.Hour)

	g.RecordFailure("a@example.com")

	if g.Locked("b@example.com") {
		t.Fatalf("unrelated identifier was locked out")
	}
}
