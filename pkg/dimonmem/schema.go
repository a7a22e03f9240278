package dimonmem

// VectorDimensions matches nomic-embed-text output. Changing it requires a
// fresh vec_events table and a full reindex.
const VectorDimensions = 768

const schema = `
CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    chat_id INTEGER NOT NULL,
    username TEXT,
    raw_text TEXT NOT NULL,
    sentiment REAL NOT NULL DEFAULT 0,
    importance REAL NOT NULL DEFAULT 0.5,
    tags TEXT NOT NULL DEFAULT '[]',
    embedded INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_user ON events(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_events_chat ON events(chat_id);
CREATE INDEX IF NOT EXISTS idx_events_created ON events(created_at);
CREATE INDEX IF NOT EXISTS idx_events_embedded ON events(embedded);

CREATE TABLE IF NOT EXISTS profiles (
    user_id INTEGER PRIMARY KEY,
    username TEXT,
    traits TEXT NOT NULL DEFAULT '{}',
    relationship_score REAL NOT NULL DEFAULT 0,
    tier INTEGER NOT NULL DEFAULT 0,
    interaction_count INTEGER NOT NULL DEFAULT 0,
    negative_streak INTEGER NOT NULL DEFAULT 0,
    counted_today INTEGER NOT NULL DEFAULT 0,
    counted_day TEXT NOT NULL DEFAULT '',
    last_counted_at DATETIME,
    last_interaction_at DATETIME,
    last_initiated_at DATETIME,
    last_event_id INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME DEFAULT (datetime('now')),
    updated_at DATETIME DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_profiles_tier ON profiles(tier);
`

const vecSchema = `
CREATE VIRTUAL TABLE IF NOT EXISTS vec_events USING vec0(
    event_id INTEGER PRIMARY KEY,
    embedding FLOAT[768] distance_metric=cosine
);
`
