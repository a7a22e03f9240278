package dimonmem

import (
	"context"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/ncruces"
)

func (s *Store) embedWorker(ctx context.Context) {
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			return
		case id := <-s.embedQ:
			s.embedEvent(ctx, id)
		}
	}
}

// embedEvent computes and stores the embedding for one event. Failures are
// swallowed: the event stays reachable through the recency window and gets
// another chance on the next EmbedPending sweep.
func (s *Store) embedEvent(ctx context.Context, id int64) {
	if s.embedder == nil {
		return
	}

	ev, err := s.GetEvent(id)
	if err != nil || ev.Embedded {
		return
	}

	embedCtx, cancel := context.WithTimeout(ctx, s.tuning.EmbedTimeout)
	defer cancel()

	vector, err := s.embedder.Embed(embedCtx, ev.RawText)
	if err != nil {
		return
	}

	s.UpsertEmbedding(id, vector)
}

// UpsertEmbedding writes the vector for an event into the index and marks
// the event embedded. Vectors are write-once: a second call for the same
// event is a no-op, preserving embedding immutability.
func (s *Store) UpsertEmbedding(eventID int64, vector []float32) error {
	blob, err := sqlite_vec.SerializeFloat32(vector)
	if err != nil {
		return err
	}

	var embedded bool
	if err := s.db.QueryRow(`SELECT embedded FROM events WHERE id = ?`, eventID).Scan(&embedded); err != nil {
		return ErrNotFound
	}
	if embedded {
		return nil
	}

	if _, err := s.db.Exec(`INSERT INTO vec_events (event_id, embedding) VALUES (?, ?)`, eventID, blob); err != nil {
		return &TransientError{Op: "upsert embedding", Err: err}
	}

	_, err = s.db.Exec(`UPDATE events SET embedded = 1 WHERE id = ?`, eventID)
	return err
}

func (s *Store) DeleteEmbedding(eventID int64) error {
	_, err := s.db.Exec(`DELETE FROM vec_events WHERE event_id = ?`, eventID)
	return err
}

// SemanticSearch returns the k nearest events by cosine distance, newest
// first among ties. userID of 0 searches across all users. An empty index
// yields an empty result, never an error.
func (s *Store) SemanticSearch(ctx context.Context, queryVector []float32, k int, userID int64) ([]*ScoredEvent, error) {
	if k <= 0 {
		k = s.tuning.TopK
	}

	blob, err := sqlite_vec.SerializeFloat32(queryVector)
	if err != nil {
		return nil, err
	}

	q := `
		SELECT e.id, e.user_id, e.chat_id, e.username, e.raw_text, e.sentiment,
		       e.importance, e.tags, e.embedded, e.created_at, v.distance
		FROM vec_events v
		JOIN events e ON v.event_id = e.id
		WHERE v.embedding MATCH ? AND k = ?`
	args := []any{blob, k}

	if userID != 0 {
		q += ` AND e.user_id = ?`
		args = append(args, userID)
	}

	q += ` ORDER BY v.distance, e.created_at DESC, e.id DESC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, &TransientError{Op: "semantic search", Err: err}
	}
	defer rows.Close()

	var results []*ScoredEvent
	for rows.Next() {
		var ev Event
		var tagsJSON string
		var distance float64
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.ChatID, &ev.Username, &ev.RawText,
			&ev.Sentiment, &ev.Importance, &tagsJSON, &ev.Embedded, &ev.CreatedAt, &distance); err != nil {
			return nil, err
		}
		decodeTags(&ev, tagsJSON)
		results = append(results, &ScoredEvent{Event: &ev, Similarity: 1 - distance})
	}

	return results, rows.Err()
}

// EmbedPending re-queues events that never got their embedding, typically
// after a crash or an embedder outage. Returns the number swept.
func (s *Store) EmbedPending(ctx context.Context) (int, error) {
	if s.embedder == nil {
		return 0, nil
	}

	rows, err := s.db.Query(`SELECT id FROM events WHERE embedded = 0 ORDER BY id`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return 0, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, id := range ids {
		s.embedEvent(ctx, id)
	}

	return len(ids), nil
}

// WaitForEmbeds blocks until the embed queue drains or the timeout passes.
// Only useful in tests and shutdown paths.
func (s *Store) WaitForEmbeds(timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for len(s.embedQ) > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
}
