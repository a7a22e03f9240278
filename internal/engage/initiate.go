package engage

import (
	"time"

	"github.com/r0d10nq/dimon/pkg/dimonmem"
)

type Slot int

const (
	SlotMorning Slot = iota
	SlotEvening
)

func (s Slot) String() string {
	if s == SlotEvening {
		return "evening"
	}
	return "morning"
}

type Initiation struct {
	UserID   int64
	ChatID   int64
	Username string
	Slot     Slot
}

// Initiations returns the users the agent should greet on a scheduled tick.
// Weekends yield nothing. A user qualifies when their tier is at least the
// initiation floor and they have not been greeted yet this calendar day, so
// a morning greeting consumes the evening one too. Strangers are never
// cold-messaged.
//
// The DM chat id equals the user id, matching how the transports address
// private chats.
func (a *Arbiter) Initiations(now time.Time, slot Slot, profiles []*dimonmem.Profile) []Initiation {
	if wd := now.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return nil
	}

	today := now.Format("2006-01-02")

	var out []Initiation
	for _, p := range profiles {
		if p.Tier < a.policy.MinInitiationTier {
			continue
		}
		if p.LastInitiatedAt != nil && p.LastInitiatedAt.In(now.Location()).Format("2006-01-02") == today {
			continue
		}
		out = append(out, Initiation{
			UserID:   p.UserID,
			ChatID:   p.UserID,
			Username: p.Username,
			Slot:     slot,
		})
	}

	return out
}
