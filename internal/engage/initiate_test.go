package engage

import (
	"testing"
	"time"

	"github.com/r0d10nq/dimon/pkg/dimonmem"
)

func profileAt(userID int64, tier dimonmem.Tier, lastInitiated *time.Time) *dimonmem.Profile {
	return &dimonmem.Profile{UserID: userID, Tier: tier, LastInitiatedAt: lastInitiated}
}

func TestInitiationsSkipWeekends(t *testing.T) {
	a := New(DefaultPolicy)
	saturday := time.Date(2026, 3, 7, 8, 0, 0, 0, time.UTC)

	got := a.Initiations(saturday, SlotMorning, []*dimonmem.Profile{
		profileAt(1, dimonmem.TierBuddy, nil),
	})
	if len(got) != 0 {
		t.Errorf("no initiations on a Saturday, got %d", len(got))
	}
}

func TestInitiationsTierFloor(t *testing.T) {
	a := New(DefaultPolicy)
	monday := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	got := a.Initiations(monday, SlotMorning, []*dimonmem.Profile{
		profileAt(1, dimonmem.TierStranger, nil),
		profileAt(2, dimonmem.TierAcquaintance, nil),
		profileAt(3, dimonmem.TierFriend, nil),
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 initiations, got %d", len(got))
	}
	for _, in := range got {
		if in.UserID == 1 {
			t.Error("strangers must never be cold-messaged")
		}
		if in.ChatID != in.UserID {
			t.Errorf("DM chat id should equal user id, got chat %d for user %d", in.ChatID, in.UserID)
		}
	}
}

func TestInitiationsOncePerCalendarDay(t *testing.T) {
	a := New(DefaultPolicy)
	monday := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	yesterday := monday.AddDate(0, 0, -1)
	thisMorning := monday.Add(-time.Hour)

	got := a.Initiations(monday, SlotMorning, []*dimonmem.Profile{
		profileAt(1, dimonmem.TierFriend, &yesterday),
	})
	if len(got) != 1 {
		t.Fatalf("greeted yesterday, should be eligible today, got %d", len(got))
	}

	// After the morning greeting is recorded, the evening tick stays quiet.
	got = a.Initiations(monday.Add(9*time.Hour), SlotEvening, []*dimonmem.Profile{
		profileAt(1, dimonmem.TierFriend, &thisMorning),
	})
	if len(got) != 0 {
		t.Errorf("second greeting on the same day, got %d", len(got))
	}
}
