package dimonmem

import "time"

// Tuning holds the engine constants. None of these are verifiable
// "personality" truths, so they are configuration with documented defaults
// rather than hard-coded values.
type Tuning struct {
	// Trait decay and reinforcement.
	TraitHalfLife time.Duration // exponential decay toward zero for unreinforced traits
	TraitNudge    float64       // bounded increment per derived tag

	// Relationship score growth.
	ScoreBase       float64       // base increment per counted interaction
	MinEventSpacing time.Duration // events closer than this count as one interaction
	DemotionDrop    float64       // score reduction on a negative-streak demotion

	// Tier thresholds, ascending. Score below AcquaintanceAt is stranger.
	AcquaintanceAt float64
	FriendAt       float64
	BuddyAt        float64

	// Negative-sentiment streak demotion.
	NegativeBelow float64 // sentiment at or below this extends the streak
	StreakLength  int     // consecutive negatives that trigger a one-tier demotion

	// Retrieval blending.
	TopK            int           // semantic matches fetched per query
	RecentN         int           // recency window events, independent of similarity
	SimilarityWt    float64       // weight of cosine similarity in the blend
	RecencyWt       float64       // weight of the recency decay term
	RecencyHalfLife time.Duration // age at which the recency term halves

	// EmbedTimeout bounds every call into the embedding collaborator, both
	// the background index worker and the synchronous query path. A stalled
	// embedder degrades retrieval to recency-only instead of blocking.
	EmbedTimeout time.Duration
}

var DefaultTuning = Tuning{
	TraitHalfLife:   7 * 24 * time.Hour,
	TraitNudge:      0.1,
	ScoreBase:       1.0,
	MinEventSpacing: 30 * time.Second,
	DemotionDrop:    1.0,
	AcquaintanceAt:  10,
	FriendAt:        30,
	BuddyAt:         60,
	NegativeBelow:   -0.3,
	StreakLength:    5,
	TopK:            5,
	RecentN:         8,
	SimilarityWt:    0.65,
	RecencyWt:       0.35,
	RecencyHalfLife: 48 * time.Hour,
	EmbedTimeout:    30 * time.Second,
}
