package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/civicmeter/paragon/internal/store"
	"github.com/civicmeter/paragon/pkg/alert"
	"github.com/civicmeter/paragon/pkg/evidence"
	"github.com/civicmeter/paragon/pkg/metrics"
	"github.com/civicmeter/paragon/pkg/scoring"
	"github.com/civicmeter/paragon/pkg/source"
	"github.com/civicmeter/paragon/pkg/trend"
)

// Scheduler runs periodic evidence ingestion and score recalculation.
// It is also the single home of both pipelines: the CLI one-shot
// commands call RunIngest/RunScore directly.
type Scheduler struct {
	store          store.Store
	sources        []source.Source
	rate           source.RateFunc
	contract       *metrics.Contract
	engine         *scoring.Engine
	alertMgr       *alert.Manager
	ingestInt      time.Duration
	scoreInt       time.Duration
	alertThreshold int
}

// New creates a new scheduler. rate is the injected ranking function
// applied to every collected item.
func New(
	s store.Store,
	sources []source.Source,
	rate source.RateFunc,
	contract *metrics.Contract,
	engine *scoring.Engine,
	alertMgr *alert.Manager,
	ingestInt, scoreInt time.Duration,
	alertThreshold int,
) *Scheduler {
	if ingestInt == 0 {
		ingestInt = 30 * time.Minute
	}
	if scoreInt == 0 {
		scoreInt = 6 * time.Hour
	}
	if alertThreshold == 0 {
		alertThreshold = 10
	}
	return &Scheduler{
		store:          s,
		sources:        sources,
		rate:           rate,
		contract:       contract,
		engine:         engine,
		alertMgr:       alertMgr,
		ingestInt:      ingestInt,
		scoreInt:       scoreInt,
		alertThreshold: alertThreshold,
	}
}

// Run starts the scheduler loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ingestTicker := time.NewTicker(s.ingestInt)
	scoreTicker := time.NewTicker(s.scoreInt)
	defer ingestTicker.Stop()
	defer scoreTicker.Stop()

	// Run immediately on start.
	fmt.Fprintln(os.Stderr, "scheduler: initial ingestion...")
	s.RunIngest(ctx)
	fmt.Fprintln(os.Stderr, "scheduler: initial scoring...")
	s.RunScore(ctx)

	fmt.Fprintf(os.Stderr, "scheduler: running (ingest every %s, score every %s)\n",
		s.ingestInt, s.scoreInt)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "scheduler: stopped")
			return ctx.Err()
		case <-ingestTicker.C:
			fmt.Fprintln(os.Stderr, "scheduler: ingesting...")
			s.RunIngest(ctx)
		case <-scoreTicker.C:
			fmt.Fprintln(os.Stderr, "scheduler: scoring...")
			s.RunScore(ctx)
		}
	}
}

// RunIngest collects evidence from all sources, ranks each item against
// the rest of the window, and upserts by dedupe key.
func (s *Scheduler) RunIngest(ctx context.Context) {
	now := time.Now().UTC()

	var items []evidence.Item
	for _, src := range s.sources {
		collected, err := src.Collect(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  %s error: %v\n", src.Name(), err)
			continue
		}
		fmt.Fprintf(os.Stderr, "  %s: %d items\n", src.Name(), len(collected))
		items = append(items, collected...)
	}
	if len(items) == 0 {
		fmt.Fprintln(os.Stderr, "  nothing collected")
		return
	}

	// Corroboration peers: headlines from other sources in this window.
	titlesBySource := make(map[string][]string)
	for _, item := range items {
		titlesBySource[item.SourceKey] = append(titlesBySource[item.SourceKey], item.Title)
	}

	rows := make([]store.EvidenceRow, 0, len(items))
	failed := 0
	for _, item := range items {
		var peers []string
		for key, titles := range titlesBySource {
			if key != item.SourceKey {
				peers = append(peers, titles...)
			}
		}

		canonical, err := evidence.CanonicalURL(item.URL)
		if err != nil {
			failed++
			continue
		}
		key, err := evidence.DedupeKey(item.SourceKey, item.URL)
		if err != nil {
			failed++
			continue
		}

		result := s.rate(item, peers, now)

		rows = append(rows, store.EvidenceRow{
			DedupeKey:            key,
			SourceKey:            item.SourceKey,
			URL:                  item.URL,
			CanonicalURL:         canonical,
			Title:                item.Title,
			PublishedAt:          item.PublishedAt,
			ContentType:          item.ContentType,
			Language:             item.Language,
			Snippet:              item.Snippet,
			RawText:              item.RawText,
			Entities:             item.Entities,
			Topics:               item.Topics,
			Signals:              item.Signals,
			ExtractionConfidence: item.ExtractionConfidence,
			PoliticianID:         item.PoliticianID,
			ContentHash:          evidence.ContentHash(item.RawText),
			Rating:               result.Rating,
			Breakdown:            result,
			FirstSeen:            now,
			LastSeen:             now,
		})
	}

	res, err := s.store.UpsertEvidence(ctx, rows)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  evidence upsert error: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "  evidence: %d upserted, %d failed\n", res.Upserted, res.Failed+failed)
}

// RunScore recomputes snapshots for every tracked politician, appends
// trend entries for changed scores, and alerts on large moves.
func (s *Scheduler) RunScore(ctx context.Context) {
	now := time.Now().UTC()

	politicians, err := s.store.ListPoliticians(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  list politicians error: %v\n", err)
		return
	}
	if len(politicians) == 0 {
		fmt.Fprintln(os.Stderr, "  no politicians registered")
		return
	}

	last, err := s.store.LastScores(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  last scores error: %v\n", err)
		return
	}

	names := make(map[int64]string, len(politicians))
	var snaps []scoring.Snapshot
	for _, p := range politicians {
		names[p.ID] = p.Name

		row, err := s.store.GetMetricsRow(ctx, p.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  metrics row %d error: %v\n", p.ID, err)
			continue
		}
		if row == nil {
			continue
		}

		canonical := s.contract.FromRow(row)
		snaps = append(snaps, s.engine.Score(p.ID, canonical, now))
	}

	res, err := s.store.UpsertSnapshots(ctx, snaps)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  snapshot upsert error: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "  snapshots: %d upserted, %d failed\n", res.Upserted, res.Failed)

	entries := trend.Diff(snaps, last)
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "  no score changes")
		return
	}

	tres, err := s.store.AppendTrends(ctx, entries)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  trend append error: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "  trends: %d appended, %d failed\n", tres.Upserted, tres.Failed)

	s.alertOnBigMoves(ctx, entries, names)
}

func (s *Scheduler) alertOnBigMoves(ctx context.Context, entries []trend.Entry, names map[int64]string) {
	if s.alertMgr == nil || !s.alertMgr.HasNotifiers() {
		return
	}

	for _, e := range entries {
		if abs(e.Delta) < s.alertThreshold {
			continue
		}

		notification := &alert.Notification{
			PoliticianID:  e.PoliticianID,
			Name:          names[e.PoliticianID],
			PreviousScore: e.PreviousScore,
			NewScore:      e.NewScore,
			Delta:         e.Delta,
			Body: fmt.Sprintf("Overall score moved %+d in the latest scoring run (rules %s).",
				e.Delta, e.RawSnapshot.RuleVersion),
		}

		if err := s.alertMgr.Broadcast(ctx, notification); err != nil {
			fmt.Fprintf(os.Stderr, "  alert error for %d: %v\n", e.PoliticianID, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "  alerted: %s (%+d)\n", names[e.PoliticianID], e.Delta)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
