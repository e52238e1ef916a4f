package monitoring

import "fmt"

// ShapeError reports a feature vector that cannot be recorded: a monitored
// feature is missing, or a value is not a finite number.
type ShapeError struct {
	Feature string
	Reason  string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("invalid feature vector: feature %q %s", e.Feature, e.Reason)
}
