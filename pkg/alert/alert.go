package alert

import (
	"context"
	"errors"
	"fmt"
)

// Notification is the data sent to alert destinations when a tracked
// politician's score moves past the configured threshold.
type Notification struct {
	PoliticianID  int64  `json:"politician_id"`
	Name          string `json:"name"`
	PreviousScore int    `json:"previous_score"`
	NewScore      int    `json:"new_score"`
	Delta         int    `json:"delta"`
	Body          string `json:"body"`
}

// Direction describes the move for display.
func (n *Notification) Direction() string {
	if n.Delta > 0 {
		return "up"
	}
	return "down"
}

// Notifier delivers alerts to a specific destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// Manager broadcasts notifications to all registered notifiers.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates a new alert manager.
func NewManager(notifiers []Notifier) *Manager {
	return &Manager{notifiers: notifiers}
}

// HasNotifiers returns true if at least one notifier is configured.
func (m *Manager) HasNotifiers() bool {
	return len(m.notifiers) > 0
}

// Broadcast sends a notification to all registered notifiers.
func (m *Manager) Broadcast(ctx context.Context, n *Notification) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
		}
	}
	return errors.Join(errs...)
}
