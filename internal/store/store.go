package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/civicmeter/paragon/pkg/reliability"
	"github.com/civicmeter/paragon/pkg/scoring"
	"github.com/civicmeter/paragon/pkg/trend"
)

// chunkSize bounds how many rows go into one write batch. Chunks fail
// independently: a bad chunk is counted and the rest still run.
const chunkSize = 200

// Politician is one tracked public figure.
type Politician struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Party     string    `db:"party" json:"party"`
	Region    string    `db:"region" json:"region"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TrendRow is a persisted trend entry.
type TrendRow struct {
	ID            int64            `db:"id" json:"id"`
	PoliticianID  int64            `db:"politician_id" json:"politician_id"`
	PreviousScore int              `db:"previous_score" json:"previous_score"`
	NewScore      int              `db:"new_score" json:"new_score"`
	Delta         int              `db:"delta" json:"delta"`
	Snapshot      scoring.Snapshot `db:"-" json:"raw_snapshot"`
	SnapshotJSON  string           `db:"raw_snapshot" json:"-"`
	CalculatedAt  time.Time        `db:"calculated_at" json:"calculated_at"`
}

// EvidenceRow is a persisted, rated evidence item keyed by dedupe_key.
type EvidenceRow struct {
	DedupeKey            string             `db:"dedupe_key" json:"dedupe_key"`
	SourceKey            string             `db:"source_key" json:"source_key"`
	URL                  string             `db:"url" json:"url"`
	CanonicalURL         string             `db:"canonical_url" json:"canonical_url"`
	Title                string             `db:"title" json:"title"`
	PublishedAt          *time.Time         `db:"published_at" json:"published_at,omitempty"`
	ContentType          string             `db:"content_type" json:"content_type"`
	Language             string             `db:"language" json:"language"`
	Snippet              string             `db:"snippet" json:"snippet"`
	RawText              string             `db:"raw_text" json:"-"`
	Entities             []string           `db:"-" json:"entities"`
	Topics               []string           `db:"-" json:"topics"`
	Signals              map[string]float64 `db:"-" json:"signals"`
	ExtractionConfidence float64            `db:"extraction_confidence" json:"extraction_confidence"`
	PoliticianID         *int64             `db:"politician_id" json:"politician_id,omitempty"`
	ContentHash          string             `db:"content_hash" json:"content_hash"`
	Rating               int                `db:"rating" json:"rating"`
	Breakdown            reliability.Result `db:"-" json:"rating_breakdown"`
	EntitiesJSON         string             `db:"entities" json:"-"`
	TopicsJSON           string             `db:"topics" json:"-"`
	SignalsJSON          string             `db:"signals" json:"-"`
	BreakdownJSON        string             `db:"rating_breakdown" json:"-"`
	FirstSeen            time.Time          `db:"first_seen" json:"first_seen"`
	LastSeen             time.Time          `db:"last_seen" json:"last_seen"`
}

// BatchResult reports how a chunked write went. Failed counts rows that
// were skipped or lost to a failed chunk; the batch itself continues.
type BatchResult struct {
	Upserted int
	Failed   int
}

// Store is the persistence interface.
type Store interface {
	UpsertPolitician(ctx context.Context, p *Politician) error
	ListPoliticians(ctx context.Context) ([]Politician, error)

	SaveMetricsRow(ctx context.Context, politicianID int64, row map[string]float64) error
	GetMetricsRow(ctx context.Context, politicianID int64) (map[string]float64, error)

	UpsertSnapshots(ctx context.Context, snaps []scoring.Snapshot) (BatchResult, error)
	LastScores(ctx context.Context) (map[int64]int, error)

	AppendTrends(ctx context.Context, entries []trend.Entry) (BatchResult, error)
	ListTrends(ctx context.Context, limit int) ([]TrendRow, error)

	UpsertEvidence(ctx context.Context, rows []EvidenceRow) (BatchResult, error)
	ListEvidence(ctx context.Context, limit int) ([]EvidenceRow, error)

	SyncFeedSources(ctx context.Context, sources []reliability.SourceMeta) error
	ListFeedSources(ctx context.Context) ([]reliability.SourceMeta, error)

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertPolitician(ctx context.Context, p *Politician) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO politicians (id, name, party, region, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			party = excluded.party,
			region = excluded.region
	`, p.ID, p.Name, p.Party, p.Region, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert politician %d: %w", p.ID, err)
	}
	return nil
}

func (s *SQLiteStore) ListPoliticians(ctx context.Context) ([]Politician, error) {
	var out []Politician
	if err := s.db.SelectContext(ctx, &out, "SELECT * FROM politicians ORDER BY id"); err != nil {
		return nil, fmt.Errorf("list politicians: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) SaveMetricsRow(ctx context.Context, politicianID int64, row map[string]float64) error {
	rowJSON, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("marshal metrics row %d: %w", politicianID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO politician_metrics (politician_id, row, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(politician_id) DO UPDATE SET
			row = excluded.row,
			updated_at = excluded.updated_at
	`, politicianID, string(rowJSON), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save metrics row %d: %w", politicianID, err)
	}
	return nil
}

// GetMetricsRow returns the stored metrics row, or nil when the
// politician has no metrics yet. Absence is data, not an error.
func (s *SQLiteStore) GetMetricsRow(ctx context.Context, politicianID int64) (map[string]float64, error) {
	var rowJSON string
	err := s.db.GetContext(ctx, &rowJSON,
		"SELECT row FROM politician_metrics WHERE politician_id = ?", politicianID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get metrics row %d: %w", politicianID, err)
	}

	row := make(map[string]float64)
	if err := json.Unmarshal([]byte(rowJSON), &row); err != nil {
		return nil, fmt.Errorf("decode metrics row %d: %w", politicianID, err)
	}
	return row, nil
}

// UpsertSnapshots writes snapshots in chunks. Rows without a politician
// id are skipped and counted as failed; a failing chunk does not stop
// the remaining chunks.
func (s *SQLiteStore) UpsertSnapshots(ctx context.Context, snaps []scoring.Snapshot) (BatchResult, error) {
	var result BatchResult

	for start := 0; start < len(snaps); start += chunkSize {
		end := start + chunkSize
		if end > len(snaps) {
			end = len(snaps)
		}

		if err := s.writeSnapshotChunk(ctx, snaps[start:end], &result); err != nil {
			fmt.Fprintf(os.Stderr, "  snapshot chunk %d-%d failed: %v\n", start, end, err)
			result.Failed += end - start
		}
	}

	return result, nil
}

func (s *SQLiteStore) writeSnapshotChunk(ctx context.Context, snaps []scoring.Snapshot, result *BatchResult) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	written := 0
	skipped := 0
	for _, snap := range snaps {
		if snap.PoliticianID == 0 {
			skipped++
			continue
		}

		dimsJSON, _ := json.Marshal(snap.Dimensions)
		signalsJSON, _ := json.Marshal(snap.SignalsRaw)

		_, err := tx.ExecContext(ctx, `
			INSERT INTO score_snapshots (politician_id, overall_score, dimensions, signals_raw, rule_version, calculated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(politician_id, calculated_at) DO UPDATE SET
				overall_score = excluded.overall_score,
				dimensions = excluded.dimensions,
				signals_raw = excluded.signals_raw,
				rule_version = excluded.rule_version
		`, snap.PoliticianID, snap.OverallScore, string(dimsJSON), string(signalsJSON),
			snap.RuleVersion, snap.CalculatedAt)
		if err != nil {
			return err
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	result.Upserted += written
	result.Failed += skipped
	return nil
}

// LastScores returns the most recent overall score per politician.
func (s *SQLiteStore) LastScores(ctx context.Context) (map[int64]int, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT politician_id, overall_score FROM score_snapshots
		WHERE id IN (SELECT MAX(id) FROM score_snapshots GROUP BY politician_id)
	`)
	if err != nil {
		return nil, fmt.Errorf("last scores: %w", err)
	}
	defer rows.Close()

	last := make(map[int64]int)
	for rows.Next() {
		var id int64
		var score int
		if err := rows.Scan(&id, &score); err != nil {
			return nil, err
		}
		last[id] = score
	}
	return last, rows.Err()
}

// AppendTrends persists trend entries, keyed by (politician_id,
// calculated_at) so re-running an unchanged batch is a no-op.
func (s *SQLiteStore) AppendTrends(ctx context.Context, entries []trend.Entry) (BatchResult, error) {
	var result BatchResult

	for _, e := range entries {
		if e.PoliticianID == 0 {
			result.Failed++
			continue
		}

		snapJSON, _ := json.Marshal(e.RawSnapshot)
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO trend_entries (politician_id, previous_score, new_score, delta, raw_snapshot, calculated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(politician_id, calculated_at) DO UPDATE SET
				previous_score = excluded.previous_score,
				new_score = excluded.new_score,
				delta = excluded.delta,
				raw_snapshot = excluded.raw_snapshot
		`, e.PoliticianID, e.PreviousScore, e.NewScore, e.Delta,
			string(snapJSON), e.RawSnapshot.CalculatedAt)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  trend entry %d failed: %v\n", e.PoliticianID, err)
			result.Failed++
			continue
		}
		result.Upserted++
	}

	return result, nil
}

// ListTrends returns the most recent trend entries, newest first.
// Insertion order is the tiebreaker, so read-side riser/faller sorts
// stay stable.
func (s *SQLiteStore) ListTrends(ctx context.Context, limit int) ([]TrendRow, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []TrendRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM trend_entries ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list trends: %w", err)
	}

	for i := range rows {
		json.Unmarshal([]byte(rows[i].SnapshotJSON), &rows[i].Snapshot)
	}
	return rows, nil
}

// UpsertEvidence writes evidence rows in chunks keyed by dedupe_key.
// Retrying with identical inputs is a no-op; rows without a dedupe key
// are counted as failed and skipped.
func (s *SQLiteStore) UpsertEvidence(ctx context.Context, rows []EvidenceRow) (BatchResult, error) {
	var result BatchResult

	for start := 0; start < len(rows); start += chunkSize {
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}

		if err := s.writeEvidenceChunk(ctx, rows[start:end], &result); err != nil {
			fmt.Fprintf(os.Stderr, "  evidence chunk %d-%d failed: %v\n", start, end, err)
			result.Failed += end - start
		}
	}

	return result, nil
}

func (s *SQLiteStore) writeEvidenceChunk(ctx context.Context, rows []EvidenceRow, result *BatchResult) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	written := 0
	skipped := 0
	for i := range rows {
		row := &rows[i]
		if row.DedupeKey == "" {
			skipped++
			continue
		}

		entitiesJSON, _ := json.Marshal(row.Entities)
		topicsJSON, _ := json.Marshal(row.Topics)
		signalsJSON, _ := json.Marshal(row.Signals)
		breakdownJSON, _ := json.Marshal(row.Breakdown)

		_, err := tx.ExecContext(ctx, `
			INSERT INTO evidence (dedupe_key, source_key, url, canonical_url, title, published_at,
				content_type, language, snippet, raw_text, entities, topics, signals,
				extraction_confidence, politician_id, content_hash, rating, rating_breakdown,
				first_seen, last_seen)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(dedupe_key) DO UPDATE SET
				title = excluded.title,
				published_at = excluded.published_at,
				snippet = excluded.snippet,
				raw_text = excluded.raw_text,
				entities = excluded.entities,
				topics = excluded.topics,
				signals = excluded.signals,
				extraction_confidence = excluded.extraction_confidence,
				politician_id = excluded.politician_id,
				content_hash = excluded.content_hash,
				rating = excluded.rating,
				rating_breakdown = excluded.rating_breakdown,
				last_seen = excluded.last_seen
		`, row.DedupeKey, row.SourceKey, row.URL, row.CanonicalURL, row.Title, row.PublishedAt,
			row.ContentType, row.Language, row.Snippet, row.RawText,
			string(entitiesJSON), string(topicsJSON), string(signalsJSON),
			row.ExtractionConfidence, row.PoliticianID, row.ContentHash, row.Rating,
			string(breakdownJSON), row.FirstSeen, row.LastSeen)
		if err != nil {
			return err
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	result.Upserted += written
	result.Failed += skipped
	return nil
}

// ListEvidence returns rated evidence, best first.
func (s *SQLiteStore) ListEvidence(ctx context.Context, limit int) ([]EvidenceRow, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []EvidenceRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM evidence ORDER BY rating DESC, dedupe_key LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}

	for i := range rows {
		json.Unmarshal([]byte(rows[i].EntitiesJSON), &rows[i].Entities)
		json.Unmarshal([]byte(rows[i].TopicsJSON), &rows[i].Topics)
		json.Unmarshal([]byte(rows[i].SignalsJSON), &rows[i].Signals)
		json.Unmarshal([]byte(rows[i].BreakdownJSON), &rows[i].Breakdown)
	}
	return rows, nil
}

// SyncFeedSources mirrors the configured source registry into the
// feed_sources table.
func (s *SQLiteStore) SyncFeedSources(ctx context.Context, sources []reliability.SourceMeta) error {
	for _, src := range sources {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO feed_sources (key, name, base_url, trust_tier, trust_score, scrape_method, refresh_minutes, scope)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				name = excluded.name,
				base_url = excluded.base_url,
				trust_tier = excluded.trust_tier,
				trust_score = excluded.trust_score,
				scrape_method = excluded.scrape_method,
				refresh_minutes = excluded.refresh_minutes,
				scope = excluded.scope
		`, src.Key, src.Name, src.BaseURL, src.TrustTier, src.TrustScore,
			src.ScrapeMethod, src.RefreshMinutes, src.Scope)
		if err != nil {
			return fmt.Errorf("sync feed source %s: %w", src.Key, err)
		}
	}
	return nil
}

func (s *SQLiteStore) ListFeedSources(ctx context.Context) ([]reliability.SourceMeta, error) {
	var out []reliability.SourceMeta
	if err := s.db.SelectContext(ctx, &out, "SELECT * FROM feed_sources ORDER BY key"); err != nil {
		return nil, fmt.Errorf("list feed sources: %w", err)
	}
	return out, nil
}
