package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/civicmeter/paragon/internal/config"
	"github.com/civicmeter/paragon/internal/scheduler"
	"github.com/civicmeter/paragon/internal/store"
	"github.com/civicmeter/paragon/pkg/alert"
	"github.com/civicmeter/paragon/pkg/evidence"
	"github.com/civicmeter/paragon/pkg/metrics"
	"github.com/civicmeter/paragon/pkg/reliability"
	"github.com/civicmeter/paragon/pkg/scoring"
	"github.com/civicmeter/paragon/pkg/source"
	"github.com/civicmeter/paragon/pkg/trend"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func buildScorer(cfg *config.Config) (*reliability.Scorer, *reliability.Registry, error) {
	registry := reliability.NewRegistry(cfg.Reliability.Sources)
	scorer, err := reliability.NewScorer(cfg.Reliability.Weights, registry)
	if err != nil {
		return nil, nil, fmt.Errorf("build reliability scorer: %w", err)
	}
	return scorer, registry, nil
}

func buildSources(cfg *config.Config) []source.Source {
	// With no tracked names configured, collect everything rather than
	// filtering everything out.
	var filter *source.Filter
	if len(cfg.Filter.Names) > 0 {
		filter = source.NewFilter(cfg.Filter.Names, cfg.Filter.ExcludeKeywords)
	}

	var feeds []source.Feed
	for _, meta := range cfg.Reliability.Sources {
		if meta.ScrapeMethod != "rss" {
			continue
		}
		feeds = append(feeds, source.Feed{Key: meta.Key, Name: meta.Name, URL: meta.BaseURL})
	}

	if len(feeds) == 0 {
		return nil
	}
	return []source.Source{source.NewRSS(feeds, filter)}
}

func buildAlertManager(cfg *config.Config) *alert.Manager {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}

	return alert.NewManager(notifiers)
}

func buildScheduler(cfg *config.Config, db store.Store) (*scheduler.Scheduler, error) {
	engine, err := scoring.NewEngine(cfg.Scoring)
	if err != nil {
		return nil, fmt.Errorf("build scoring engine: %w", err)
	}

	scorer, _, err := buildScorer(cfg)
	if err != nil {
		return nil, err
	}

	// Ranking is injected into the ingestion pipeline here, at
	// construction, never by swapping module state later.
	rate := func(item evidence.Item, peers []string, now time.Time) reliability.Result {
		return scorer.Rate(reliability.Item{
			SourceKey:  item.SourceKey,
			Title:      item.Title,
			Text:       item.RawText,
			Published:  item.PublishedAt,
			PeerTitles: peers,
		}, now)
	}

	return scheduler.New(
		db,
		buildSources(cfg),
		rate,
		metrics.Default(),
		engine,
		buildAlertManager(cfg),
		cfg.Schedule.ParseIngestInterval(),
		cfg.Schedule.ParseScoreInterval(),
		cfg.Trend.AlertThreshold,
	), nil
}

// importRecord is one scraper payload in an import file.
type importRecord struct {
	PoliticianID int64              `json:"politician_id"`
	Name         string             `json:"name"`
	Party        string             `json:"party"`
	Region       string             `json:"region"`
	Payload      map[string]float64 `json:"payload"`
}

func runImport(file string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}

	var records []importRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parse import file: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	contract := metrics.Default()
	ctx := context.Background()

	imported, failed := 0, 0
	for _, rec := range records {
		if rec.PoliticianID == 0 {
			failed++
			continue
		}

		if err := db.UpsertPolitician(ctx, &store.Politician{
			ID: rec.PoliticianID, Name: rec.Name, Party: rec.Party, Region: rec.Region,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "  politician %d: %v\n", rec.PoliticianID, err)
			failed++
			continue
		}

		row := contract.ToRow(contract.FromScraper(rec.Payload))
		if err := db.SaveMetricsRow(ctx, rec.PoliticianID, row); err != nil {
			fmt.Fprintf(os.Stderr, "  metrics %d: %v\n", rec.PoliticianID, err)
			failed++
			continue
		}
		imported++
	}

	fmt.Fprintf(os.Stderr, "imported %d records, %d failed\n", imported, failed)
	return nil
}

func runIngest() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	if err := db.SyncFeedSources(context.Background(), cfg.Reliability.Sources); err != nil {
		return fmt.Errorf("sync feed sources: %w", err)
	}

	sched, err := buildScheduler(cfg, db)
	if err != nil {
		return err
	}

	sched.RunIngest(context.Background())
	return nil
}

func runScore() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	sched, err := buildScheduler(cfg, db)
	if err != nil {
		return err
	}

	sched.RunScore(context.Background())
	return nil
}

func runTrends(jsonOutput, fallers bool, limit int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	rows, err := db.ListTrends(ctx, cfg.Trend.WindowSize)
	if err != nil {
		return fmt.Errorf("list trends: %w", err)
	}

	entries := make([]trend.Entry, len(rows))
	for i, r := range rows {
		entries[i] = trend.Entry{
			PoliticianID:  r.PoliticianID,
			PreviousScore: r.PreviousScore,
			NewScore:      r.NewScore,
			Delta:         r.Delta,
			RawSnapshot:   r.Snapshot,
		}
	}

	var top []trend.Entry
	if fallers {
		top, err = trend.TopFallers(entries, limit)
	} else {
		top, err = trend.TopRisers(entries, limit)
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(top)
	}

	if len(top) == 0 {
		fmt.Println("no trend entries yet (import metrics and run: paragon score)")
		return nil
	}

	names := make(map[int64]string)
	if politicians, err := db.ListPoliticians(ctx); err == nil {
		for _, p := range politicians {
			names[p.ID] = p.Name
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POLITICIAN\tPREV\tNEW\tDELTA")
	for _, e := range top {
		name := names[e.PoliticianID]
		if name == "" {
			name = fmt.Sprintf("#%d", e.PoliticianID)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%+d\n", name, e.PreviousScore, e.NewScore, e.Delta)
	}
	return w.Flush()
}

func runRank(sourceKey, title, text, published string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	scorer, _, err := buildScorer(cfg)
	if err != nil {
		return err
	}

	item := reliability.Item{SourceKey: sourceKey, Title: title, Text: text}
	if published != "" {
		ts, err := time.Parse(time.RFC3339, published)
		if err != nil {
			return fmt.Errorf("parse --published: %w", err)
		}
		item.Published = &ts
	}

	result := scorer.Rate(item, time.Now().UTC())

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func runDaemon() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := db.SyncFeedSources(ctx, cfg.Reliability.Sources); err != nil {
		return fmt.Errorf("sync feed sources: %w", err)
	}

	sched, err := buildScheduler(cfg, db)
	if err != nil {
		return err
	}

	if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	return nil
}
