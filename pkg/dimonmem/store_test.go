package dimonmem

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestOpenAndClose(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()
}

func TestAppendAndGet(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	id, err := store.Append(context.Background(), &Event{
		UserID:  42,
		ChatID:  100,
		RawText: "thanks, that deploy script is awesome",
	})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}

	ev, err := store.GetEvent(id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if ev.UserID != 42 {
		t.Errorf("expected user 42, got %d", ev.UserID)
	}
	if ev.Sentiment <= 0 {
		t.Errorf("expected positive sentiment, got %f", ev.Sentiment)
	}
	if len(ev.Tags) == 0 {
		t.Error("expected derived tags")
	}
	if ev.Embedded {
		t.Error("event should not be embedded without an embedder")
	}
}

func TestAppendValidation(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	cases := []struct {
		name string
		ev   Event
	}{
		{"missing user", Event{ChatID: 1, RawText: "hi"}},
		{"missing text", Event{UserID: 1, ChatID: 1}},
		{"blank text", Event{UserID: 1, ChatID: 1, RawText: "   "}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.Append(context.Background(), &tc.ev)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestGetEventNotFound(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	if _, err := store.GetEvent(999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEventsByUserNewestFirst(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := range 3 {
		_, err := store.Append(context.Background(), &Event{
			UserID:    7,
			ChatID:    1,
			RawText:   "message",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	events, err := store.EventsByUser(7, time.Time{}, time.Time{}, 10)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].CreatedAt.After(events[i-1].CreatedAt) {
			t.Error("events not ordered newest first")
		}
	}
}

func TestPurgeKeepsUnfoldedEvents(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	id, err := store.Append(context.Background(), &Event{
		UserID: 5, ChatID: 1, RawText: "old message", CreatedAt: old,
	})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}

	// no profile yet: the event's contribution is not folded, so purge
	// must not touch it
	deleted, err := store.PurgeOlderThan(old.Add(24 * time.Hour))
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("expected 0 deleted, got %d", deleted)
	}

	ev, err := store.GetEvent(id)
	if err != nil {
		t.Fatalf("event should survive purge: %v", err)
	}

	// fold into the profile, then purge again
	if _, err := store.ApplyEvent(ev); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	deleted, err = store.PurgeOlderThan(old.Add(24 * time.Hour))
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", deleted)
	}

	if _, err := store.GetEvent(id); !errors.Is(err, ErrNotFound) {
		t.Error("folded old event should be purged")
	}
}

func TestCollectStats(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	ev := &Event{UserID: 1, ChatID: 1, RawText: "hello"}
	if _, err := store.Append(context.Background(), ev); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if _, err := store.ApplyEvent(ev); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	stats, err := store.CollectStats()
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}

	if stats.EventCount != 1 {
		t.Errorf("expected 1 event, got %d", stats.EventCount)
	}
	if stats.UserCount != 1 {
		t.Errorf("expected 1 user, got %d", stats.UserCount)
	}
	if stats.TierCounts[TierStranger] != 1 {
		t.Errorf("expected 1 stranger, got %d", stats.TierCounts[TierStranger])
	}
}
