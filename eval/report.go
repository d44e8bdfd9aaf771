package eval

import "time"

// timestampLayout matches the human-readable format the report has always
// used, e.g. "March 05, 2024 09:15:02 PM".
const timestampLayout = "January 02, 2006 03:04:05 PM"

// Report is the complete evaluation result for one run. It marshals to a
// flat JSON object with fixed top-level keys; per_class preserves its
// F1-descending key order.
type Report struct {
	Timestamp string            `json:"timestamp"`
	RunID     string            `json:"run_id"`
	Overall   Record            `json:"overall"`
	PerClass  PerClassMetrics   `json:"per_class"`
	Slices    map[string]Record `json:"slices"`
}

// NewReport runs all three calculators and assembles a timestamped report.
func NewReport(runID string, yTrue, yPred []int, classes []string, examples []Example, preds []Predicate) (*Report, error) {
	overall, err := Overall(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	perClass, err := PerClass(yTrue, yPred, classes)
	if err != nil {
		return nil, err
	}
	slices, err := Slices(yTrue, yPred, examples, preds)
	if err != nil {
		return nil, err
	}

	return &Report{
		Timestamp: time.Now().Format(timestampLayout),
		RunID:     runID,
		Overall:   overall,
		PerClass:  perClass,
		Slices:    slices,
	}, nil
}
