package store

const schema = `
CREATE TABLE IF NOT EXISTS politicians (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    party      TEXT NOT NULL DEFAULT '',
    region     TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS politician_metrics (
    politician_id INTEGER PRIMARY KEY REFERENCES politicians(id),
    row           TEXT NOT NULL DEFAULT '{}',
    updated_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS score_snapshots (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    politician_id INTEGER NOT NULL,
    overall_score INTEGER NOT NULL,
    dimensions    TEXT NOT NULL DEFAULT '[]',
    signals_raw   TEXT NOT NULL DEFAULT '{}',
    rule_version  TEXT NOT NULL DEFAULT '',
    calculated_at DATETIME NOT NULL,
    UNIQUE(politician_id, calculated_at)
);

CREATE INDEX IF NOT EXISTS idx_snapshots_politician ON score_snapshots(politician_id);
CREATE INDEX IF NOT EXISTS idx_snapshots_calculated ON score_snapshots(calculated_at);

CREATE TABLE IF NOT EXISTS trend_entries (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    politician_id  INTEGER NOT NULL,
    previous_score INTEGER NOT NULL,
    new_score      INTEGER NOT NULL,
    delta          INTEGER NOT NULL,
    raw_snapshot   TEXT NOT NULL DEFAULT '{}',
    calculated_at  DATETIME NOT NULL,
    UNIQUE(politician_id, calculated_at)
);

CREATE INDEX IF NOT EXISTS idx_trends_delta ON trend_entries(delta);

CREATE TABLE IF NOT EXISTS evidence (
    dedupe_key            TEXT PRIMARY KEY,
    source_key            TEXT NOT NULL,
    url                   TEXT NOT NULL,
    canonical_url         TEXT NOT NULL,
    title                 TEXT NOT NULL DEFAULT '',
    published_at          DATETIME,
    content_type          TEXT NOT NULL DEFAULT '',
    language              TEXT NOT NULL DEFAULT '',
    snippet               TEXT NOT NULL DEFAULT '',
    raw_text              TEXT NOT NULL DEFAULT '',
    entities              TEXT NOT NULL DEFAULT '[]',
    topics                TEXT NOT NULL DEFAULT '[]',
    signals               TEXT NOT NULL DEFAULT '{}',
    extraction_confidence REAL NOT NULL DEFAULT 0,
    politician_id         INTEGER,
    content_hash          TEXT NOT NULL DEFAULT '',
    rating                INTEGER NOT NULL DEFAULT 0,
    rating_breakdown      TEXT NOT NULL DEFAULT '{}',
    first_seen            DATETIME NOT NULL,
    last_seen             DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_evidence_source ON evidence(source_key);
CREATE INDEX IF NOT EXISTS idx_evidence_rating ON evidence(rating);

CREATE TABLE IF NOT EXISTS feed_sources (
    key             TEXT PRIMARY KEY,
    name            TEXT NOT NULL,
    base_url        TEXT NOT NULL,
    trust_tier      INTEGER NOT NULL DEFAULT 3,
    trust_score     INTEGER NOT NULL DEFAULT 40,
    scrape_method   TEXT NOT NULL DEFAULT 'rss',
    refresh_minutes INTEGER NOT NULL DEFAULT 60,
    scope           TEXT NOT NULL DEFAULT ''
);
`
