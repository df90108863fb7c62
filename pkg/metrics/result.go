package metrics

import "fmt"

// Status classifies a metric outcome
type Status int

const (
	StatusOK                Status = iota
	StatusNotApplicable            // The metric has no meaningful value for this graph
	StatusComputationFailed        // The computation failed internally
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotApplicable:
		return "not_applicable"
	case StatusComputationFailed:
		return "computation_failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// MarshalText encodes the status by name
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result is the outcome of one metric computation
type Result struct {
	Metric string  `json:"metric"`
	Value  string  `json:"value"`  // Formatted for display
	Number float64 `json:"number"` // Underlying numeric value where one exists
	Status Status  `json:"status"`
	Reason string  `json:"reason,omitempty"`
}

// String returns the display value, or "Err" for failed computations
func (r Result) String() string {
	if r.Status == StatusComputationFailed {
		return "Err"
	}
	return r.Value
}

// OK returns true if the metric produced a value
func (r Result) OK() bool {
	return r.Status == StatusOK
}

func ok(metric string, number float64, format string, args ...any) Result {
	return Result{Metric: metric, Value: fmt.Sprintf(format, args...), Number: number, Status: StatusOK}
}

func notApplicable(metric, value, reason string) Result {
	return Result{Metric: metric, Value: value, Status: StatusNotApplicable, Reason: reason}
}

func failed(metric string, reason string) Result {
	return Result{Metric: metric, Value: "Err", Status: StatusComputationFailed, Reason: reason}
}
