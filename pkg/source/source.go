package source

import (
	"context"
	"time"

	"github.com/civicmeter/paragon/pkg/evidence"
	"github.com/civicmeter/paragon/pkg/reliability"
)

// Source is the interface every evidence collector must implement.
type Source interface {
	Name() string
	Collect(ctx context.Context) ([]evidence.Item, error)
}

// RateFunc scores one collected item against the other headlines seen in
// the same ingestion window. Ranking is composed by the caller at
// construction; collectors never reach into a ranking module themselves.
type RateFunc func(item evidence.Item, peerTitles []string, now time.Time) reliability.Result
