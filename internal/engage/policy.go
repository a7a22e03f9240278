package engage

import (
	"time"

	"github.com/r0d10nq/dimon/pkg/dimonmem"
)

// TierPolicy sets the engagement cadence for one relationship tier. Closer
// tiers answer more often and cool down faster.
type TierPolicy struct {
	Probability float64
	Cooldown    time.Duration
}

type Policy struct {
	Tiers map[dimonmem.Tier]TierPolicy

	// SilentBonus raises the response probability for every consecutive
	// suppressed message, capped at MaxProbability, so the agent never goes
	// fully mute in an active chat.
	SilentBonus    float64
	MaxProbability float64

	// Triggers are case-insensitive substrings that count as addressing the
	// agent directly.
	Triggers []string

	MinInitiationTier dimonmem.Tier
}

var DefaultPolicy = Policy{
	Tiers: map[dimonmem.Tier]TierPolicy{
		dimonmem.TierStranger:     {Probability: 0.15, Cooldown: 15 * time.Minute},
		dimonmem.TierAcquaintance: {Probability: 0.30, Cooldown: 10 * time.Minute},
		dimonmem.TierFriend:       {Probability: 0.50, Cooldown: 5 * time.Minute},
		dimonmem.TierBuddy:        {Probability: 0.75, Cooldown: 2 * time.Minute},
	},
	SilentBonus:       0.05,
	MaxProbability:    0.95,
	Triggers:          []string{"dimon", "димон"},
	MinInitiationTier: dimonmem.TierAcquaintance,
}

func (p Policy) forTier(tier dimonmem.Tier) TierPolicy {
	if tp, ok := p.Tiers[tier]; ok {
		return tp
	}
	return p.Tiers[dimonmem.TierStranger]
}
