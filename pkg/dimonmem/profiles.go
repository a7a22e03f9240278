package dimonmem

import (
	"database/sql"
	"encoding/json"
	"errors"
	"math"
	"time"
)

// ApplyEvent folds one event into its user's profile and returns the
// updated aggregate. Callers serialize per user; this function assumes it
// is the only writer for ev.UserID while it runs.
//
// Replays are a no-op: an event at or below the profile's last applied id
// returns the stored profile unchanged, so retries never double-count.
func (s *Store) ApplyEvent(ev *Event) (*Profile, error) {
	p, err := s.GetProfile(ev.UserID)
	if errors.Is(err, ErrNotFound) {
		p = newProfile(ev.UserID, ev.Username, ev.CreatedAt)
	} else if err != nil {
		return nil, err
	}

	if ev.ID != 0 && ev.ID <= p.LastEventID {
		return p, nil
	}

	s.decayTraits(p, ev.CreatedAt)
	s.nudgeTraits(p, ev.Tags)
	s.growScore(p, ev)
	s.trackStreak(p, ev.Sentiment)

	p.Tier = s.tuning.TierForScore(p.RelationshipScore)
	p.InteractionCount++
	t := ev.CreatedAt
	p.LastInteractionAt = &t
	if ev.Username != "" {
		p.Username = ev.Username
	}
	if ev.ID > p.LastEventID {
		p.LastEventID = ev.ID
	}
	p.UpdatedAt = ev.CreatedAt

	if err := s.saveProfile(p); err != nil {
		return nil, err
	}

	return p, nil
}

func newProfile(userID int64, username string, at time.Time) *Profile {
	return &Profile{
		UserID:    userID,
		Username:  username,
		Traits:    make(map[string]float64),
		Tier:      TierStranger,
		CreatedAt: at,
	}
}

// decayTraits halves every trait per TraitHalfLife of inactivity, dropping
// strengths that rounded to nothing. Keeps stale traits from dominating.
func (s *Store) decayTraits(p *Profile, at time.Time) {
	if p.LastInteractionAt == nil {
		return
	}

	dt := at.Sub(*p.LastInteractionAt)
	if dt <= 0 {
		return
	}

	factor := math.Exp(-math.Ln2 * dt.Hours() / s.tuning.TraitHalfLife.Hours())
	for trait, strength := range p.Traits {
		decayed := strength * factor
		if decayed < 0.01 {
			delete(p.Traits, trait)
			continue
		}
		p.Traits[trait] = decayed
	}
}

func (s *Store) nudgeTraits(p *Profile, tags []string) {
	for _, tag := range tags {
		p.Traits[tag] = min(p.Traits[tag]+s.tuning.TraitNudge, 1.0)
	}
}

// growScore advances the relationship score. Events inside the minimum
// spacing window count as one interaction, and same-day counted
// interactions are damped logarithmically, so message spam cannot inflate
// the score linearly.
func (s *Store) growScore(p *Profile, ev *Event) {
	if p.LastCountedAt != nil && ev.CreatedAt.Sub(*p.LastCountedAt) < s.tuning.MinEventSpacing {
		return
	}

	day := ev.CreatedAt.UTC().Format("2006-01-02")
	if day != p.CountedDay {
		p.CountedDay = day
		p.CountedToday = 0
	}
	p.CountedToday++

	increment := s.tuning.ScoreBase * (1 + max(ev.Sentiment, 0))
	increment /= 1 + math.Log1p(float64(p.CountedToday-1))

	p.RelationshipScore += increment
	t := ev.CreatedAt
	p.LastCountedAt = &t
}

// trackStreak maintains the consecutive-negative counter. A full streak
// demotes by exactly one tier, by dropping the score just under the current
// tier's floor; a single negative event never demotes, and any non-negative
// event resets the streak.
func (s *Store) trackStreak(p *Profile, sentiment float64) {
	if sentiment > s.tuning.NegativeBelow {
		p.NegativeStreak = 0
		return
	}

	p.NegativeStreak++
	if p.NegativeStreak < s.tuning.StreakLength {
		return
	}

	current := s.tuning.TierForScore(p.RelationshipScore)
	if current > TierStranger {
		floor := s.tuning.floorFor(current)
		p.RelationshipScore = max(floor-s.tuning.DemotionDrop, 0)
	}
	p.NegativeStreak = 0
}

func (s *Store) GetProfile(userID int64) (*Profile, error) {
	row := s.db.QueryRow(`
		SELECT user_id, username, traits, relationship_score, tier, interaction_count,
		       negative_streak, counted_today, counted_day, last_counted_at,
		       last_interaction_at, last_initiated_at, last_event_id, created_at, updated_at
		FROM profiles WHERE user_id = ?`, userID)

	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// Profiles returns every stored profile, used by the scheduled-initiation
// sweep. Initiation candidates are few, so no pagination.
func (s *Store) Profiles() ([]*Profile, error) {
	rows, err := s.db.Query(`
		SELECT user_id, username, traits, relationship_score, tier, interaction_count,
		       negative_streak, counted_today, counted_day, last_counted_at,
		       last_interaction_at, last_initiated_at, last_event_id, created_at, updated_at
		FROM profiles ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// MarkInitiated records a bot-initiated contact, used to gate the
// one-greeting-per-day rule.
func (s *Store) MarkInitiated(userID int64, at time.Time) error {
	_, err := s.db.Exec(`UPDATE profiles SET last_initiated_at = ?, updated_at = ? WHERE user_id = ?`,
		at, at, userID)
	return err
}

func (s *Store) saveProfile(p *Profile) error {
	traitsJSON, err := json.Marshal(p.Traits)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO profiles (user_id, username, traits, relationship_score, tier,
		                      interaction_count, negative_streak, counted_today, counted_day,
		                      last_counted_at, last_interaction_at, last_initiated_at,
		                      last_event_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			username = excluded.username,
			traits = excluded.traits,
			relationship_score = excluded.relationship_score,
			tier = excluded.tier,
			interaction_count = excluded.interaction_count,
			negative_streak = excluded.negative_streak,
			counted_today = excluded.counted_today,
			counted_day = excluded.counted_day,
			last_counted_at = excluded.last_counted_at,
			last_interaction_at = excluded.last_interaction_at,
			last_event_id = excluded.last_event_id,
			updated_at = excluded.updated_at`,
		p.UserID, p.Username, string(traitsJSON), p.RelationshipScore, p.Tier,
		p.InteractionCount, p.NegativeStreak, p.CountedToday, p.CountedDay,
		p.LastCountedAt, p.LastInteractionAt, p.LastInitiatedAt,
		p.LastEventID, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return &TransientError{Op: "save profile", Err: err}
	}

	return nil
}

func scanProfile(row rowScanner) (*Profile, error) {
	var p Profile
	var traitsJSON string

	err := row.Scan(&p.UserID, &p.Username, &traitsJSON, &p.RelationshipScore, &p.Tier,
		&p.InteractionCount, &p.NegativeStreak, &p.CountedToday, &p.CountedDay,
		&p.LastCountedAt, &p.LastInteractionAt, &p.LastInitiatedAt,
		&p.LastEventID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(traitsJSON), &p.Traits); err != nil || p.Traits == nil {
		p.Traits = make(map[string]float64)
	}

	return &p, nil
}
