package server

import (
	"encoding/json"
	"time"

	"github.com/predmaint/rulserve/internal/alerting"
	"github.com/predmaint/rulserve/internal/monitoring"
)

// TopicDriftStatus streams the full drift report on a fixed cadence.
const TopicDriftStatus = "drift-status"

// TopicDriftAlerts streams the currently firing alert, or null when the
// window is healthy.
const TopicDriftAlerts = "drift-alerts"

// RegisterMonitoringTopics adds generators for the monitoring WebSocket
// topics. Dashboards subscribe to these instead of polling the REST
// monitoring endpoint.
func RegisterMonitoringTopics(hub *Hub, monitor *monitoring.Monitor, eval *alerting.Evaluator, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}

	if monitor != nil {
		hub.AddGenerator(TopicDriftStatus, interval, func() (json.RawMessage, error) {
			return json.Marshal(monitor.Report())
		})
	}

	if eval != nil {
		hub.AddGenerator(TopicDriftAlerts, interval, func() (json.RawMessage, error) {
			return json.Marshal(eval.Firing())
		})
	}
}
