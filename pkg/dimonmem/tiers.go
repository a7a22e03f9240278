package dimonmem

// Tier is the ordered relationship category. It is always computed from
// RelationshipScore via TierForScore, never set directly.
type Tier int

const (
	TierStranger Tier = iota
	TierAcquaintance
	TierFriend
	TierBuddy
)

var tierNames = [...]string{"stranger", "acquaintance", "friend", "buddy"}

func (t Tier) String() string {
	if t < TierStranger || t > TierBuddy {
		return "stranger"
	}
	return tierNames[t]
}

// ParseTier maps a tier name to its value. Unknown names fall back to
// stranger, the lowest-trust default.
func ParseTier(name string) Tier {
	for i, n := range tierNames {
		if n == name {
			return Tier(i)
		}
	}
	return TierStranger
}

// TierForScore is the pure threshold function from score to tier.
func (t Tuning) TierForScore(score float64) Tier {
	switch {
	case score >= t.BuddyAt:
		return TierBuddy
	case score >= t.FriendAt:
		return TierFriend
	case score >= t.AcquaintanceAt:
		return TierAcquaintance
	default:
		return TierStranger
	}
}

// floorFor returns the lowest score that still maps to the given tier.
func (t Tuning) floorFor(tier Tier) float64 {
	switch tier {
	case TierBuddy:
		return t.BuddyAt
	case TierFriend:
		return t.FriendAt
	case TierAcquaintance:
		return t.AcquaintanceAt
	default:
		return 0
	}
}
