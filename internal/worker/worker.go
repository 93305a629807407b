// Package worker provides async alert processing for the Pro tier.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opensource-finance/sentinel/internal/domain"
)

// AlertWorker consumes flagged-prediction events from the EventBus and
// persists them as alerts. Keeping this off the request path means a
// slow audit store never delays a /predict response.
type AlertWorker struct {
	bus  domain.EventBus
	repo domain.Repository

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewAlertWorker creates a new alert worker.
func NewAlertWorker(bus domain.EventBus, repo domain.Repository) *AlertWorker {
	ctx, cancel := context.WithCancel(context.Background())
	return &AlertWorker{
		bus:    bus,
		repo:   repo,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start subscribes to the flagged-prediction topic.
func (w *AlertWorker) Start() error {
	sub, err := w.bus.Subscribe(w.ctx, domain.TopicPredictionFlagged, w.handleFlagged)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("alert worker started",
		"topic", domain.TopicPredictionFlagged,
	)
	return nil
}

// handleFlagged persists one flagged prediction as an alert.
func (w *AlertWorker) handleFlagged(ctx context.Context, msg *domain.Message) error {
	start := time.Now()

	var event domain.PredictionEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		slog.Error("failed to parse prediction event",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	alert := &domain.Alert{
		ID:           uuid.New().String(),
		PredictionID: event.PredictionID,
		Probability:  event.Probability,
		Reasons:      event.Justification,
		CreatedAt:    time.Now().UTC(),
	}

	if w.repo != nil {
		if err := w.repo.SaveAlert(ctx, alert); err != nil {
			slog.Error("failed to save alert",
				"prediction_id", event.PredictionID,
				"error", err,
			)
			return err
		}
	}

	slog.Info("alert raised",
		"alert_id", alert.ID,
		"prediction_id", event.PredictionID,
		"probability", event.Probability,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// Stop gracefully stops the worker.
func (w *AlertWorker) Stop() error {
	w.cancel()

	// Unsubscribe all
	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	slog.Info("alert worker stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *AlertWorker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
