// Package eval computes classification performance metrics: an overall
// weighted summary, per-class breakdowns, and micro-averaged metrics over
// named dataset slices. All functions are pure and safe for concurrent use.
package eval

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Sentinel errors for malformed calculator input.
var (
	// ErrLengthMismatch indicates truth and prediction slices differ in length.
	ErrLengthMismatch = errors.New("eval: truth and prediction length mismatch")

	// ErrNoSamples indicates an empty evaluation set was provided.
	ErrNoSamples = errors.New("eval: no samples")
)

// Record holds precision, recall, F1 and sample count for one scope
// (overall, one class, or one slice).
//
// NumSamples is float64 across all scopes for schema uniformity, even where
// the value is always integral.
type Record struct {
	Precision  float64 `json:"precision"`
	Recall     float64 `json:"recall"`
	F1         float64 `json:"f1"`
	NumSamples float64 `json:"num_samples"`
}

// counts holds pooled confusion counts for one class.
type counts struct {
	tp, fp, fn int
	support    int
}

// prf converts confusion counts to precision, recall and F1, with zero
// denominators yielding zero rather than NaN.
func (c counts) prf() (precision, recall, f1 float64) {
	if c.tp+c.fp > 0 {
		precision = float64(c.tp) / float64(c.tp+c.fp)
	}
	if c.tp+c.fn > 0 {
		recall = float64(c.tp) / float64(c.tp+c.fn)
	}
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return precision, recall, f1
}

// countClass tallies TP/FP/FN and true support for class c over parallel
// truth/prediction slices.
func countClass(yTrue, yPred []int, c int) counts {
	var n counts
	for i := range yTrue {
		if yTrue[i] == c {
			n.support++
			if yPred[i] == c {
				n.tp++
			} else {
				n.fn++
			}
		} else if yPred[i] == c {
			n.fp++
		}
	}
	return n
}

// validate checks the shared input invariants of the calculators.
func validate(yTrue, yPred []int) error {
	if len(yTrue) != len(yPred) {
		return fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return ErrNoSamples
	}
	return nil
}

// Overall returns weighted-average precision, recall and F1 over all labels
// observed in yTrue or yPred. Per-label metrics are computed independently,
// then combined with weights equal to each label's true support divided by
// the total sample count. Labels that only appear in predictions carry zero
// weight.
func Overall(yTrue, yPred []int) (Record, error) {
	if err := validate(yTrue, yPred); err != nil {
		return Record{}, err
	}

	seen := make(map[int]bool)
	for i := range yTrue {
		seen[yTrue[i]] = true
		seen[yPred[i]] = true
	}

	n := float64(len(yTrue))
	var rec Record
	for c := range seen {
		cc := countClass(yTrue, yPred, c)
		p, r, f1 := cc.prf()
		w := float64(cc.support) / n
		rec.Precision += p * w
		rec.Recall += r * w
		rec.F1 += f1 * w
	}
	rec.NumSamples = n
	return rec, nil
}

// ClassRecord pairs a class name with its metrics.
type ClassRecord struct {
	Class string
	Record
}

// PerClassMetrics is an ordered collection of per-class records. Order is
// significant: after PerClass it is descending by F1, with ties preserving
// the original class order. It marshals to a JSON object whose keys appear
// in that order.
type PerClassMetrics []ClassRecord

// Get returns the record for the named class.
func (m PerClassMetrics) Get(class string) (Record, bool) {
	for _, cr := range m {
		if cr.Class == class {
			return cr.Record, true
		}
	}
	return Record{}, false
}

// MarshalJSON renders the collection as an object, preserving element order.
func (m PerClassMetrics) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cr := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(cr.Class)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		rec, err := json.Marshal(cr.Record)
		if err != nil {
			return nil, err
		}
		buf.Write(rec)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// PerClass returns one record per class, where classes[i] names class index
// i and the class list order is the canonical pre-sort order. Every class in
// the list appears in the result, including classes with no true or
// predicted samples (all-zero record). The result is stable-sorted by F1
// descending.
func PerClass(yTrue, yPred []int, classes []string) (PerClassMetrics, error) {
	if err := validate(yTrue, yPred); err != nil {
		return nil, err
	}

	out := make(PerClassMetrics, 0, len(classes))
	for i, class := range classes {
		cc := countClass(yTrue, yPred, i)
		p, r, f1 := cc.prf()
		out = append(out, ClassRecord{
			Class: class,
			Record: Record{
				Precision:  p,
				Recall:     r,
				F1:         f1,
				NumSamples: float64(cc.support),
			},
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].F1 > out[j].F1
	})
	return out, nil
}
