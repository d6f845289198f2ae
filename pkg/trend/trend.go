// Package trend turns consecutive score snapshots into an append-only
// log of score movements.
package trend

import (
	"errors"
	"sort"

	"github.com/civicmeter/paragon/pkg/scoring"
)

// ErrNegativeLimit is returned when a caller asks for a negative number
// of risers or fallers.
var ErrNegativeLimit = errors.New("trend: limit must be >= 0")

// Entry records one score change for one politician. Entries exist only
// for actual changes; a first observation or an unchanged score emits
// nothing.
type Entry struct {
	PoliticianID  int64            `json:"politician_id"`
	PreviousScore int              `json:"previous_score"`
	NewScore      int              `json:"new_score"`
	Delta         int              `json:"delta"`
	RawSnapshot   scoring.Snapshot `json:"raw_snapshot"`
}

// Diff compares a batch of new snapshots against the last known score
// per politician and returns one entry per changed score. Politicians
// without a prior score are baselines and produce no entry, so re-running
// on unchanged inputs writes nothing.
func Diff(snaps []scoring.Snapshot, last map[int64]int) []Entry {
	var entries []Entry
	for _, snap := range snaps {
		prev, ok := last[snap.PoliticianID]
		if !ok {
			continue
		}
		delta := snap.OverallScore - prev
		if delta == 0 {
			continue
		}
		entries = append(entries, Entry{
			PoliticianID:  snap.PoliticianID,
			PreviousScore: prev,
			NewScore:      snap.OverallScore,
			Delta:         delta,
			RawSnapshot:   snap,
		})
	}
	return entries
}

// TopRisers returns up to n entries with the largest positive movement.
// The sort is stable: ties keep their original fetch order.
func TopRisers(entries []Entry, n int) ([]Entry, error) {
	return topBy(entries, n, func(a, b Entry) bool { return a.Delta > b.Delta })
}

// TopFallers returns up to n entries with the largest negative movement.
func TopFallers(entries []Entry, n int) ([]Entry, error) {
	return topBy(entries, n, func(a, b Entry) bool { return a.Delta < b.Delta })
}

func topBy(entries []Entry, n int, less func(a, b Entry) bool) ([]Entry, error) {
	if n < 0 {
		return nil, ErrNegativeLimit
	}

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })

	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted, nil
}
