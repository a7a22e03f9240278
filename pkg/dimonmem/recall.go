package dimonmem

import (
	"context"
	"errors"
	"math"
	"sort"
)

// BuildContext assembles the memory slice for one live query: top-k
// semantic matches for the user blended with the recency window, deduped
// by event id and truncated to a character budget.
//
// The embedding call is best-effort. When it fails or no embedder is
// configured, the bundle degrades to recency-only and is flagged Degraded;
// partial results beat no results.
func (s *Store) BuildContext(ctx context.Context, userID, chatID int64, queryText string, budget int) (*ContextBundle, error) {
	bundle := &ContextBundle{UserID: userID, ChatID: chatID}

	if p, err := s.GetProfile(userID); err == nil {
		bundle.Profile = p
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	merged := make(map[int64]*ScoredEvent)

	if s.embedder != nil && queryText != "" {
		// a stalled embedder must not block the reply path: bound the call
		// and fall through to recency-only on expiry
		embedCtx, cancel := context.WithTimeout(ctx, s.tuning.EmbedTimeout)
		queryVector, err := s.embedder.Embed(embedCtx, queryText)
		cancel()
		if err != nil {
			bundle.Degraded = true
		} else {
			matches, err := s.SemanticSearch(ctx, queryVector, s.tuning.TopK, userID)
			if err != nil {
				bundle.Degraded = true
			} else {
				for _, m := range matches {
					merged[m.Event.ID] = m
				}
			}
		}
	} else {
		bundle.Degraded = true
	}

	recent, err := s.RecentEvents(userID, s.tuning.RecentN)
	if err != nil {
		return nil, err
	}
	for _, ev := range recent {
		if _, ok := merged[ev.ID]; !ok {
			merged[ev.ID] = &ScoredEvent{Event: ev}
		}
	}

	now := s.now()
	ranked := make([]*ScoredEvent, 0, len(merged))
	for _, se := range merged {
		age := now.Sub(se.Event.CreatedAt)
		recency := math.Exp(-math.Ln2 * age.Hours() / s.tuning.RecencyHalfLife.Hours())
		se.Rank = s.tuning.SimilarityWt*se.Similarity + s.tuning.RecencyWt*recency
		ranked = append(ranked, se)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Rank != ranked[j].Rank {
			return ranked[i].Rank > ranked[j].Rank
		}
		return ranked[i].Event.CreatedAt.After(ranked[j].Event.CreatedAt)
	})

	bundle.Events = truncateToBudget(ranked, budget)

	return bundle, nil
}

// truncateToBudget cuts the ranked list once the summed message text would
// exceed the caller's character budget. A budget of zero means unlimited.
func truncateToBudget(ranked []*ScoredEvent, budget int) []*ScoredEvent {
	if budget <= 0 {
		return ranked
	}

	var used int
	for i, se := range ranked {
		used += len(se.Event.RawText)
		if used > budget {
			return ranked[:i]
		}
	}
	return ranked
}
