package dimonmem

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Append validates and stores an inbound event, then queues it for
// asynchronous embedding. The returned id is monotonic. The event's derived
// signals (sentiment, tags, importance) are computed here and never change
// afterwards.
func (s *Store) Append(ctx context.Context, ev *Event) (int64, error) {
	if ev.UserID == 0 {
		return 0, &ValidationError{Field: "user_id", Reason: "missing"}
	}
	if strings.TrimSpace(ev.RawText) == "" {
		return 0, &ValidationError{Field: "raw_text", Reason: "missing"}
	}

	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = s.now()
	}

	ev.Sentiment, ev.Tags, ev.Importance = AnalyzeText(ev.RawText)

	tagsJSON, err := json.Marshal(ev.Tags)
	if err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO events (user_id, chat_id, username, raw_text, sentiment, importance, tags, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.UserID, ev.ChatID, ev.Username, ev.RawText, ev.Sentiment, ev.Importance, string(tagsJSON), ev.CreatedAt)
	if err != nil {
		return 0, &TransientError{Op: "append event", Err: err}
	}

	id, _ := result.LastInsertId()
	ev.ID = id

	// fire-and-forget: the vector index catches up when the embedding
	// arrives. A full queue is not an error, EmbedPending sweeps leftovers.
	if s.embedder != nil {
		select {
		case s.embedQ <- id:
		default:
		}
	}

	return id, nil
}

func (s *Store) GetEvent(id int64) (*Event, error) {
	row := s.db.QueryRow(`
		SELECT id, user_id, chat_id, username, raw_text, sentiment, importance, tags, embedded, created_at
		FROM events WHERE id = ?`, id)

	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return ev, err
}

// EventsByUser returns the user's events in the given time range, newest
// first. Zero bounds are open.
func (s *Store) EventsByUser(userID int64, since, until time.Time, limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = 50
	}
	if since.IsZero() {
		since = time.Unix(0, 0)
	}
	if until.IsZero() {
		until = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	rows, err := s.db.Query(`
		SELECT id, user_id, chat_id, username, raw_text, sentiment, importance, tags, embedded, created_at
		FROM events
		WHERE user_id = ? AND created_at >= ? AND created_at <= ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, userID, since, until, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

// RecentEvents is the recency window: the latest n events regardless of
// semantic relevance.
func (s *Store) RecentEvents(userID int64, n int) ([]*Event, error) {
	return s.EventsByUser(userID, time.Time{}, time.Time{}, n)
}

// PurgeOlderThan removes events that predate the cutoff and whose profile
// contribution is already folded in (event id at or below the profile's
// last applied id). Unfolded events survive the purge so relationship
// history is never silently lost. Index entries go first to keep the
// derived-projection invariant.
func (s *Store) PurgeOlderThan(cutoff time.Time) (int64, error) {
	const folded = `
		SELECT e.id FROM events e
		JOIN profiles p ON p.user_id = e.user_id
		WHERE e.created_at < ? AND e.id <= p.last_event_id`

	if _, err := s.db.Exec(`DELETE FROM vec_events WHERE event_id IN (`+folded+`)`, cutoff); err != nil {
		return 0, &TransientError{Op: "purge index", Err: err}
	}

	result, err := s.db.Exec(`DELETE FROM events WHERE id IN (`+folded+`)`, cutoff)
	if err != nil {
		return 0, &TransientError{Op: "purge events", Err: err}
	}

	return result.RowsAffected()
}

// CollectStats gathers counters for the status command.
func (s *Store) CollectStats() (*Stats, error) {
	st := &Stats{TierCounts: make(map[Tier]int64)}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&st.EventCount); err != nil {
		return nil, err
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM events WHERE embedded = 1`).Scan(&st.EmbeddedRows); err != nil {
		return nil, err
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM profiles`).Scan(&st.UserCount); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT tier, COUNT(*) FROM profiles GROUP BY tier`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var tier Tier
		var count int64
		if err := rows.Scan(&tier, &count); err != nil {
			return nil, err
		}
		st.TierCounts[tier] = count
	}

	return st, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*Event, error) {
	var ev Event
	var tagsJSON string

	err := row.Scan(&ev.ID, &ev.UserID, &ev.ChatID, &ev.Username, &ev.RawText,
		&ev.Sentiment, &ev.Importance, &tagsJSON, &ev.Embedded, &ev.CreatedAt)
	if err != nil {
		return nil, err
	}

	decodeTags(&ev, tagsJSON)

	return &ev, nil
}

func decodeTags(ev *Event, tagsJSON string) {
	if err := json.Unmarshal([]byte(tagsJSON), &ev.Tags); err != nil {
		ev.Tags = nil
	}
}

func scanEvents(rows *sql.Rows) ([]*Event, error) {
	var events []*Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
