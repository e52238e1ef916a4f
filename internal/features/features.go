// Package features defines the CMAPSS FD001 input schema and the
// engineered feature construction used by the RUL model.
package features

import (
	"fmt"
	"math"
	"sort"

	"github.com/predmaint/rulserve/internal/monitoring"
)

// DroppedSensors lists sensors that are constant in FD001 and were removed
// during training.
var DroppedSensors = []string{"s_1", "s_5", "s_10", "s_16", "s_18", "s_19"}

// KeySensors received rolling-window statistics during training. Each key
// sensor contributes three engineered columns: <s>_mean, <s>_norm, <s>_std.
var KeySensors = []string{
	"s_2", "s_3", "s_4", "s_7", "s_8", "s_9", "s_11", "s_12",
	"s_13", "s_14", "s_15", "s_17", "s_20", "s_21",
}

// Settings are the three operational setting columns, passed through raw.
var Settings = []string{"setting_1", "setting_2", "setting_3"}

// RawFields lists every field of a raw input reading: the three settings
// followed by all 21 sensors, dropped or not. The serving boundary
// requires all of them, mirroring the training data's column set.
func RawFields() []string {
	fields := make([]string, 0, len(Settings)+21)
	fields = append(fields, Settings...)
	for i := 1; i <= 21; i++ {
		fields = append(fields, fmt.Sprintf("s_%d", i))
	}
	return fields
}

var dropped = func() map[string]bool {
	m := make(map[string]bool, len(DroppedSensors))
	for _, s := range DroppedSensors {
		m[s] = true
	}
	return m
}()

// IsDropped reports whether the sensor was excluded during training.
func IsDropped(sensor string) bool {
	return dropped[sensor]
}

// Monitored returns the raw input vector with dropped sensors removed.
// This is the shape fed to the drift monitor: the model's usable inputs,
// before feature engineering.
func Monitored(raw monitoring.FeatureVector) monitoring.FeatureVector {
	out := make(monitoring.FeatureVector, len(raw))
	for name, val := range raw {
		if !dropped[name] {
			out[name] = val
		}
	}
	return out
}

// Engineer builds the engineered feature set for a single reading.
//
// With no per-engine history available at serving time, the raw value
// stands in for the rolling mean and the rolling std is 0. The normalized
// column uses the training baseline mean with std approximated as 5% of
// its magnitude (1.0 for a zero baseline), matching how the model was
// trained to see single readings.
func Engineer(raw monitoring.FeatureVector, baseline monitoring.Baseline) monitoring.FeatureVector {
	out := make(monitoring.FeatureVector, len(raw)+3*len(KeySensors))
	for name, val := range raw {
		out[name] = val
	}

	for _, sensor := range KeySensors {
		val, ok := raw[sensor]
		if !ok {
			continue
		}
		out[sensor+"_mean"] = val
		out[sensor+"_std"] = 0.0

		if mean, ok := baseline[sensor]; ok {
			std := math.Abs(mean) * 0.05
			if std == 0 {
				std = 1.0
			}
			out[sensor+"_norm"] = (val - mean) / std
		}
	}
	return out
}

// Columns orders an engineered vector by the given column list, filling
// absent columns with 0 so the model always sees its full input width.
func Columns(v monitoring.FeatureVector, columns []string) []float64 {
	out := make([]float64, len(columns))
	for i, name := range columns {
		out[i] = v[name] // missing -> 0
	}
	return out
}

// DefaultColumns is the fallback engineered column list used when a model
// artifact carries no feature list: the three settings plus the engineered
// columns of every key sensor, sorted, matching the training fallback.
func DefaultColumns() []string {
	cols := make([]string, 0, len(Settings)+3*len(KeySensors))
	cols = append(cols, Settings...)
	for _, s := range KeySensors {
		cols = append(cols, s+"_mean", s+"_norm", s+"_std")
	}
	sort.Strings(cols)
	return cols
}
