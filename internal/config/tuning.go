package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/r0d10nq/dimon/internal/engage"
	"github.com/r0d10nq/dimon/pkg/dimonmem"
)

// duration parses yaml values like "30s" or "168h".
type duration time.Duration

func (d *duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = duration(parsed)
	return nil
}

type tuningFile struct {
	Memory struct {
		TraitHalfLife   *duration `yaml:"trait_half_life"`
		TraitNudge      *float64  `yaml:"trait_nudge"`
		ScoreBase       *float64  `yaml:"score_base"`
		MinEventSpacing *duration `yaml:"min_event_spacing"`
		DemotionDrop    *float64  `yaml:"demotion_drop"`
		AcquaintanceAt  *float64  `yaml:"acquaintance_at"`
		FriendAt        *float64  `yaml:"friend_at"`
		BuddyAt         *float64  `yaml:"buddy_at"`
		NegativeBelow   *float64  `yaml:"negative_below"`
		StreakLength    *int      `yaml:"streak_length"`
		TopK            *int      `yaml:"top_k"`
		RecentN         *int      `yaml:"recent_n"`
		SimilarityWt    *float64  `yaml:"similarity_weight"`
		RecencyWt       *float64  `yaml:"recency_weight"`
		RecencyHalfLife *duration `yaml:"recency_half_life"`
		EmbedTimeout    *duration `yaml:"embed_timeout"`
	} `yaml:"memory"`

	Engage struct {
		SilentBonus       *float64 `yaml:"silent_bonus"`
		MaxProbability    *float64 `yaml:"max_probability"`
		Triggers          []string `yaml:"triggers"`
		MinInitiationTier string   `yaml:"min_initiation_tier"`
		Tiers             map[string]struct {
			Probability *float64  `yaml:"probability"`
			Cooldown    *duration `yaml:"cooldown"`
		} `yaml:"tiers"`
	} `yaml:"engage"`
}

// LoadTuning reads the tuning file and overlays it on the built-in
// defaults. A missing file is not an error, the defaults stand. Every knob
// lives here rather than in code so operators can adjust the personality
// curve without a rebuild.
func LoadTuning(path string) (dimonmem.Tuning, engage.Policy, error) {
	tuning := dimonmem.DefaultTuning
	policy := DefaultPolicy()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return tuning, policy, nil
		}
		return tuning, policy, err
	}

	var f tuningFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return tuning, policy, fmt.Errorf("parse %s: %w", path, err)
	}

	m := f.Memory
	if m.TraitHalfLife != nil {
		tuning.TraitHalfLife = time.Duration(*m.TraitHalfLife)
	}
	if m.TraitNudge != nil {
		tuning.TraitNudge = *m.TraitNudge
	}
	if m.ScoreBase != nil {
		tuning.ScoreBase = *m.ScoreBase
	}
	if m.MinEventSpacing != nil {
		tuning.MinEventSpacing = time.Duration(*m.MinEventSpacing)
	}
	if m.DemotionDrop != nil {
		tuning.DemotionDrop = *m.DemotionDrop
	}
	if m.AcquaintanceAt != nil {
		tuning.AcquaintanceAt = *m.AcquaintanceAt
	}
	if m.FriendAt != nil {
		tuning.FriendAt = *m.FriendAt
	}
	if m.BuddyAt != nil {
		tuning.BuddyAt = *m.BuddyAt
	}
	if m.NegativeBelow != nil {
		tuning.NegativeBelow = *m.NegativeBelow
	}
	if m.StreakLength != nil {
		tuning.StreakLength = *m.StreakLength
	}
	if m.TopK != nil {
		tuning.TopK = *m.TopK
	}
	if m.RecentN != nil {
		tuning.RecentN = *m.RecentN
	}
	if m.SimilarityWt != nil {
		tuning.SimilarityWt = *m.SimilarityWt
	}
	if m.RecencyWt != nil {
		tuning.RecencyWt = *m.RecencyWt
	}
	if m.RecencyHalfLife != nil {
		tuning.RecencyHalfLife = time.Duration(*m.RecencyHalfLife)
	}
	if m.EmbedTimeout != nil {
		tuning.EmbedTimeout = time.Duration(*m.EmbedTimeout)
	}

	e := f.Engage
	if e.SilentBonus != nil {
		policy.SilentBonus = *e.SilentBonus
	}
	if e.MaxProbability != nil {
		policy.MaxProbability = *e.MaxProbability
	}
	if len(e.Triggers) > 0 {
		policy.Triggers = e.Triggers
	}
	if e.MinInitiationTier != "" {
		policy.MinInitiationTier = dimonmem.ParseTier(e.MinInitiationTier)
	}
	for name, tp := range e.Tiers {
		tier := dimonmem.ParseTier(name)
		cur := policy.Tiers[tier]
		if tp.Probability != nil {
			cur.Probability = *tp.Probability
		}
		if tp.Cooldown != nil {
			cur.Cooldown = time.Duration(*tp.Cooldown)
		}
		policy.Tiers[tier] = cur
	}

	return tuning, policy, nil
}

// DefaultPolicy returns a deep copy so overlays never mutate the package
// default.
func DefaultPolicy() engage.Policy {
	p := engage.DefaultPolicy
	tiers := make(map[dimonmem.Tier]engage.TierPolicy, len(p.Tiers))
	for k, v := range p.Tiers {
		tiers[k] = v
	}
	p.Tiers = tiers
	return p
}
