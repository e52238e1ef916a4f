// Package alerting watches the drift monitor in the background and
// notifies webhook targets when the service enters or leaves a drift state.
package alerting

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/predmaint/rulserve/internal/metrics"
	"github.com/predmaint/rulserve/internal/monitoring"
)

// Reporter produces drift reports. Satisfied by *monitoring.Monitor.
type Reporter interface {
	Report() monitoring.Report
	Size() int
}

// WebhookConfig defines a webhook notification target.
type WebhookConfig struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// DriftAlert describes a drift episode delivered to webhook targets.
type DriftAlert struct {
	Status          string                      `json:"status"` // monitor status line
	MaxDeviationPct float64                     `json:"maxDeviationPct"`
	ThresholdPct    float64                     `json:"thresholdPct"`
	Features        []monitoring.DriftedFeature `json:"features"`
	RecentRequests  int                         `json:"recentRequests"`
	FiredAt         time.Time                   `json:"firedAt"`
}

// Evaluator periodically re-scores the monitoring window and sends webhook
// notifications when the drift state changes.
type Evaluator struct {
	monitor  Reporter
	metrics  *metrics.Metrics
	interval time.Duration
	webhooks []WebhookConfig

	mu     sync.Mutex
	firing *DriftAlert // nil when no drift episode is active
	cancel context.CancelFunc
}

// New creates an Evaluator. metrics may be nil; webhooks may be empty, in
// which case state transitions are only logged and exported.
func New(monitor Reporter, m *metrics.Metrics, interval time.Duration, webhooks []WebhookConfig) *Evaluator {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Evaluator{
		monitor:  monitor,
		metrics:  m,
		interval: interval,
		webhooks: webhooks,
	}
}

// Start begins the background evaluation loop. It runs evaluate() once
// immediately, then every interval until the context is cancelled or
// Stop() is called.
func (e *Evaluator) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)

	slog.Info("drift evaluator starting", "interval", e.interval, "webhooks", len(e.webhooks))

	go func() {
		e.evaluate()

		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Info("drift evaluator stopped")
				return
			case <-ticker.C:
				e.evaluate()
			}
		}
	}()
}

// Stop cancels the background evaluation goroutine.
func (e *Evaluator) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
}

// Firing returns the active drift alert, or nil when no drift episode is
// in progress.
func (e *Evaluator) Firing() *DriftAlert {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.firing == nil {
		return nil
	}
	alert := *e.firing
	return &alert
}

// evaluate re-scores the window and handles state transitions. A
// transition into drift fires a webhook; a transition out sends a resolved
// notification. Repeated evaluations inside one episode stay quiet.
func (e *Evaluator) evaluate() {
	report := e.monitor.Report()

	if e.metrics != nil {
		e.metrics.ObserveDrift(report.DriftDetected, report.Metrics.MaxDeviationPct, e.monitor.Size())
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if report.DriftDetected {
		if e.firing == nil {
			alert := &DriftAlert{
				Status:          report.Status,
				MaxDeviationPct: report.Metrics.MaxDeviationPct,
				ThresholdPct:    report.Metrics.ThresholdPct,
				Features:        report.Metrics.DriftedFeatures,
				RecentRequests:  report.RecentRequests,
				FiredAt:         time.Now().UTC(),
			}
			e.firing = alert
			slog.Warn("data drift detected",
				"max_deviation_pct", alert.MaxDeviationPct,
				"threshold_pct", alert.ThresholdPct,
				"drifted_features", len(alert.Features),
				"recent_requests", alert.RecentRequests,
			)
			go e.sendWebhook(*alert, false)
		}
		return
	}

	if e.firing != nil {
		alert := *e.firing
		e.firing = nil
		slog.Info("data drift resolved",
			"recent_requests", report.RecentRequests,
			"insufficient_data", report.InsufficientData,
		)
		go e.sendWebhook(alert, true)
	}
}
