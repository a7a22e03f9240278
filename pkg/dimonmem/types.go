package dimonmem

import (
	"context"
	"database/sql"
	"time"
)

// Embedder turns text into a fixed-dimension vector. Implementations live
// outside this package (ollama, mock); the store only needs this contract.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store is the durable memory and relationship engine: an append-mostly
// event log, a vector index over embedded events, and per-user profiles,
// all backed by a single SQLite file.
type Store struct {
	db       *sql.DB
	embedder Embedder
	tuning   Tuning

	now func() time.Time

	embedQ chan int64
	cancel context.CancelFunc
	done   chan struct{}
}

// Event is one observed user message plus its derived signals. Immutable
// once stored; the embedded flag flips when the async embedding arrives.
type Event struct {
	ID         int64
	UserID     int64
	ChatID     int64
	Username   string
	RawText    string
	Sentiment  float64 // [-1, 1]
	Importance float64 // [0, 1]
	Tags       []string
	Embedded   bool
	CreatedAt  time.Time
}

// Profile is the per-user aggregate derived from that user's events.
type Profile struct {
	UserID            int64
	Username          string
	Traits            map[string]float64
	RelationshipScore float64
	Tier              Tier
	InteractionCount  int
	NegativeStreak    int
	CountedToday      int
	CountedDay        string
	LastCountedAt     *time.Time
	LastInteractionAt *time.Time
	LastInitiatedAt   *time.Time
	LastEventID       int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ScoredEvent is an event with its retrieval ranking signals.
type ScoredEvent struct {
	Event      *Event
	Similarity float64 // cosine similarity, 0 when recency-only
	Rank       float64 // blended similarity + recency score
}

// ContextBundle is the merged semantic + recency memory slice handed to the
// response generator. Degraded marks a recency-only bundle (embedding
// collaborator unavailable) - a partial result, not a failure.
type ContextBundle struct {
	UserID   int64
	ChatID   int64
	Events   []*ScoredEvent
	Profile  *Profile
	Degraded bool
}

// Stats is a snapshot of stored memory, used by the /status command.
type Stats struct {
	EventCount   int64
	EmbeddedRows int64
	UserCount    int64
	TierCounts   map[Tier]int64
}
