package usage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestConsumeIncrementsWithinLimit(t *testing.T) {
	svc := NewService()

	u, err := svc.Consume(context.Background(), "user-1", 1)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if u.Used != 1 {
		t.Fatalf("expected used 1, got %d", u.Used)
	}
	if u.Plan != "Starter" || u.Limit != 10 {
		t.Fatalf("unexpected plan defaults: %+v", u)
	}
}

func TestConsumeOverGuestLimit(t *testing.T) {
	svc := NewService()
	userID := "guest:abc"

	for i := 0; i < 3; i++ {
		if _, err := svc.Consume(context.Background(), userID, 1); err != nil {
			t.Fatalf("consume %d: %v", i+1, err)
		}
	}

	_, err := svc.Consume(context.Background(), userID, 1)
	if !errors.Is(err, ErrLimitReached) {
		t.Fatalf("expected ErrLimitReached, got %v", err)
	}
}

func TestGuestDefaultsLowerLimit(t *testing.T) {
	svc := NewService()

	u, err := svc.Get(context.Background(), "guest:abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.Plan != "Guest" {
		t.Fatalf("expected Guest plan, got %q", u.Plan)
	}
	if u.Limit != 3 {
		t.Fatalf("expected limit 3, got %d", u.Limit)
	}
}

func TestEnsurePeriodResetsExpiredWindow(t *testing.T) {
	store := newMemoryStore()
	store.data["user-1"] = Usage{
		Plan:     "Starter",
		Limit:    10,
		Used:     9,
		ResetsAt: time.Now().UTC().Add(-time.Hour),
	}
	svc := &Service{store: store}

	u, err := svc.EnsurePeriod(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ensure period: %v", err)
	}
	if u.Used != 0 {
		t.Fatalf("expected used reset to 0, got %d", u.Used)
	}
	if !u.ResetsAt.After(time.Now().UTC()) {
		t.Fatalf("expected future resetsAt, got %v", u.ResetsAt)
	}
}

func TestResetClearsUsage(t *testing.T) {
	svc := NewService()

	if _, err := svc.Consume(context.Background(), "user-1", 2); err != nil {
		t.Fatalf("consume: %v", err)
	}
	u, err := svc.Reset(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if u.Used != 0 {
		t.Fatalf("expected used 0 after reset, got %d", u.Used)
	}
}
