package alerting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/predmaint/rulserve/internal/metrics"
	"github.com/predmaint/rulserve/internal/monitoring"
)

func newDriftMonitor(t *testing.T) *monitoring.Monitor {
	t.Helper()
	m, err := monitoring.New(monitoring.Baseline{"s_2": 100.0}, monitoring.WithWindowSize(10))
	if err != nil {
		t.Fatalf("monitoring.New: %v", err)
	}
	return m
}

func driftTo(t *testing.T, m *monitoring.Monitor, value float64) {
	t.Helper()
	for i := 0; i < 10; i++ {
		if err := m.Record(monitoring.FeatureVector{"s_2": value}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
}

func TestEvaluate_FiresOncePerEpisode(t *testing.T) {
	payloads := make(chan NotificationPayload, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p NotificationPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		payloads <- p
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	mon := newDriftMonitor(t)
	eval := New(mon, nil, time.Minute, []WebhookConfig{{URL: server.URL}})

	// No data yet: nothing fires.
	eval.evaluate()
	if eval.Firing() != nil {
		t.Fatal("expected no firing alert on empty window")
	}

	// Shift traffic well past the threshold.
	driftTo(t, mon, 200.0)
	eval.evaluate()

	alert := eval.Firing()
	if alert == nil {
		t.Fatal("expected firing alert after drift")
	}
	if alert.MaxDeviationPct != 100.0 {
		t.Errorf("max deviation = %v, want 100.0", alert.MaxDeviationPct)
	}

	select {
	case p := <-payloads:
		if p.Status != "firing" {
			t.Errorf("payload status = %q, want firing", p.Status)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for firing webhook")
	}

	// A second evaluation inside the same episode must stay quiet.
	eval.evaluate()
	select {
	case p := <-payloads:
		t.Errorf("unexpected second webhook: %+v", p)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestEvaluate_ResolvesAfterReset(t *testing.T) {
	payloads := make(chan NotificationPayload, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p NotificationPayload
		json.NewDecoder(r.Body).Decode(&p)
		payloads <- p
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	mon := newDriftMonitor(t)
	eval := New(mon, nil, time.Minute, []WebhookConfig{{URL: server.URL}})

	driftTo(t, mon, 200.0)
	eval.evaluate()
	<-payloads // firing

	// Clearing the window resolves the episode.
	mon.Reset()
	eval.evaluate()

	if eval.Firing() != nil {
		t.Error("expected no firing alert after reset")
	}

	select {
	case p := <-payloads:
		if p.Status != "resolved" {
			t.Errorf("payload status = %q, want resolved", p.Status)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for resolved webhook")
	}
}

func TestEvaluate_UpdatesMetrics(t *testing.T) {
	mon := newDriftMonitor(t)
	m := metrics.New()
	eval := New(mon, m, time.Minute, nil)

	driftTo(t, mon, 200.0)
	eval.evaluate()

	// With no webhooks the evaluator still tracks state.
	if eval.Firing() == nil {
		t.Fatal("expected firing alert")
	}
}

func TestStartStop(t *testing.T) {
	mon := newDriftMonitor(t)
	eval := New(mon, nil, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	eval.Start(ctx)
	driftTo(t, mon, 200.0)

	deadline := time.After(2 * time.Second)
	for eval.Firing() == nil {
		select {
		case <-deadline:
			t.Fatal("evaluator never observed drift")
		case <-time.After(5 * time.Millisecond):
		}
	}

	eval.Stop()
}

func TestNew_DefaultsInterval(t *testing.T) {
	eval := New(newDriftMonitor(t), nil, 0, nil)
	if eval.interval != 60*time.Second {
		t.Errorf("interval = %v, want 60s", eval.interval)
	}
}
