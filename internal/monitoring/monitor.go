// Package monitoring implements input-drift detection over a sliding
// window of served prediction requests. Recent per-feature means are
// compared against reference means captured from training data; a feature
// whose mean deviates from its baseline by more than a configured
// percentage is flagged as drifted.
package monitoring

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MaxDeviationPct stands in for an unbounded deviation: a feature whose
// baseline is zero but whose recent mean is not has no meaningful relative
// deviation, so it is reported at this value and always flagged.
const MaxDeviationPct = math.MaxFloat64

// DefaultThresholdPct is the drift threshold applied when none is configured.
const DefaultThresholdPct = 20.0

// DefaultWindowSize is the default observation window capacity.
const DefaultWindowSize = 100

// Baseline maps feature names to reference means from training data.
type Baseline map[string]float64

// FeatureStat describes one monitored feature in a report.
type FeatureStat struct {
	Baseline     float64 `json:"baseline"`
	Recent       float64 `json:"recent"`
	DeviationPct float64 `json:"deviation_pct"`
}

// DriftedFeature identifies a feature whose deviation exceeds the threshold.
type DriftedFeature struct {
	Feature      string  `json:"feature"`
	DeviationPct float64 `json:"deviation_pct"`
}

// ReportMetrics holds the numeric portion of a drift report.
type ReportMetrics struct {
	MaxDeviationPct   float64                `json:"max_deviation_pct"`
	ThresholdPct      float64                `json:"threshold_pct"`
	DriftedFeatures   []DriftedFeature       `json:"drifted_features"`
	FeatureStatistics map[string]FeatureStat `json:"feature_statistics"`
}

// Report is the result of scoring the current observation window against
// the baseline. It is a value object: built fresh on each query and never
// mutated afterwards.
type Report struct {
	DriftDetected    bool          `json:"drift_detected"`
	Status           string        `json:"status"`
	Metrics          ReportMetrics `json:"metrics"`
	RecentRequests   int           `json:"recent_requests"`
	InsufficientData bool          `json:"insufficient_data"`
}

// Monitor owns the shared observation window. All access is serialized
// internally, so a single Monitor may be shared by any number of request
// handlers.
type Monitor struct {
	mu        sync.RWMutex
	buf       *Buffer
	baseline  Baseline
	threshold float64
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithWindowSize sets the observation window capacity.
func WithWindowSize(n int) Option {
	return func(m *Monitor) {
		m.buf = NewBuffer(n)
	}
}

// WithThreshold sets the drift threshold in percent.
func WithThreshold(pct float64) Option {
	return func(m *Monitor) {
		m.threshold = pct
	}
}

// New creates a Monitor for the given baseline table.
// The baseline must be non-empty and the threshold positive; both are
// checked here so a misconfigured monitor can never report always-false
// drift silently.
func New(baseline Baseline, opts ...Option) (*Monitor, error) {
	if len(baseline) == 0 {
		return nil, errors.New("monitoring: baseline table is empty")
	}
	for name, mean := range baseline {
		if math.IsNaN(mean) || math.IsInf(mean, 0) {
			return nil, &ShapeError{Feature: name, Reason: "has non-finite baseline mean"}
		}
	}

	m := &Monitor{
		buf:       NewBuffer(DefaultWindowSize),
		baseline:  baseline,
		threshold: DefaultThresholdPct,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.threshold <= 0 {
		return nil, errors.New("monitoring: drift threshold must be positive")
	}
	return m, nil
}

// Record validates a feature vector and appends it to the observation
// window. Every feature in the baseline table must be present with a
// finite value; anything else is rejected with a *ShapeError and the
// window is left unchanged.
func (m *Monitor) Record(v FeatureVector) error {
	for name := range m.baseline {
		val, ok := v[name]
		if !ok {
			return &ShapeError{Feature: name, Reason: "is missing"}
		}
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return &ShapeError{Feature: name, Reason: "has a non-finite value"}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.buf.Append(v.Clone())
	return nil
}

// Reset clears the observation window so a fresh monitoring period begins.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buf.Clear()
}

// Size returns the number of observations currently in the window.
func (m *Monitor) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.buf.Len()
}

// ThresholdPct returns the configured drift threshold.
func (m *Monitor) ThresholdPct() float64 {
	return m.threshold
}

// Report scores the current window against the baseline. It is a pure
// function of the window contents: calling it twice without intervening
// records yields identical reports.
func (m *Monitor) Report() Report {
	m.mu.RLock()
	window := m.buf.Snapshot()
	m.mu.RUnlock()

	return buildReport(m.baseline, window, m.threshold)
}

// buildReport assembles a Report from a window snapshot. Split out from
// Monitor so the scoring path is testable without any shared state.
func buildReport(baseline Baseline, window []FeatureVector, thresholdPct float64) Report {
	if len(window) == 0 {
		return Report{
			Status:           "No data available for monitoring",
			InsufficientData: true,
			Metrics: ReportMetrics{
				ThresholdPct:      thresholdPct,
				DriftedFeatures:   []DriftedFeature{},
				FeatureStatistics: map[string]FeatureStat{},
			},
		}
	}

	stats := make(map[string]FeatureStat, len(baseline))
	drifted := make([]DriftedFeature, 0)
	maxDeviation := 0.0

	for feature, ref := range baseline {
		recent := windowMean(window, feature)
		dev := deviationPct(ref, recent)

		stats[feature] = FeatureStat{
			Baseline:     round4(ref),
			Recent:       round4(recent),
			DeviationPct: round2(dev),
		}
		if dev > maxDeviation {
			maxDeviation = dev
		}
		if dev > thresholdPct {
			drifted = append(drifted, DriftedFeature{Feature: feature, DeviationPct: round2(dev)})
		}
	}

	// Map iteration order is random; keep the report deterministic.
	sort.Slice(drifted, func(i, j int) bool {
		if drifted[i].DeviationPct != drifted[j].DeviationPct {
			return drifted[i].DeviationPct > drifted[j].DeviationPct
		}
		return drifted[i].Feature < drifted[j].Feature
	})

	r := Report{
		DriftDetected:  len(drifted) > 0,
		RecentRequests: len(window),
		Metrics: ReportMetrics{
			MaxDeviationPct:   round2(maxDeviation),
			ThresholdPct:      thresholdPct,
			DriftedFeatures:   drifted,
			FeatureStatistics: stats,
		},
	}
	if r.DriftDetected {
		r.Status = driftWarning(len(drifted))
	} else {
		r.Status = "No significant drift detected"
	}
	return r
}

// deviationPct returns the relative deviation of recent from ref, in
// percent. A zero baseline has no relative scale: an equally zero recent
// mean scores 0, anything else is treated as maximal deviation.
func deviationPct(ref, recent float64) float64 {
	if ref == 0 {
		if recent == 0 {
			return 0
		}
		return MaxDeviationPct
	}
	return math.Abs(recent-ref) / math.Abs(ref) * 100
}

// windowMean is the arithmetic mean of a feature's values across the
// window. Vectors missing the feature contribute nothing; Record enforces
// shape so this only matters for windows built in tests.
func windowMean(window []FeatureVector, feature string) float64 {
	var sum float64
	var n int
	for _, v := range window {
		if val, ok := v[feature]; ok {
			sum += val
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func driftWarning(n int) string {
	return fmt.Sprintf("Data Drift Warning - %d feature(s) exceed threshold", n)
}

func round2(v float64) float64 {
	if v == MaxDeviationPct {
		return v
	}
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
