package eval

import (
	"fmt"
	"strings"
)

// Example is the per-example view handed to slice predicates.
type Example struct {
	Text string `json:"text"`
	Tag  string `json:"tag"`
}

// Predicate selects a named subset of the evaluation set. Match must be a
// pure function of the example.
type Predicate struct {
	Name  string
	Match func(Example) bool
}

// llmTerms are the keywords that mark a text as LLM-related.
var llmTerms = []string{"transformer", "llm", "bert"}

// NLPLLM reports whether an example is an NLP project that mentions
// LLM-related terms. Term matching is case-insensitive.
func NLPLLM(x Example) bool {
	if !strings.Contains(x.Tag, "natural-language-processing") {
		return false
	}
	text := strings.ToLower(x.Text)
	for _, term := range llmTerms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// ShortText reports whether an example's text has fewer than 8
// whitespace-separated words.
func ShortText(x Example) bool {
	return len(strings.Fields(x.Text)) < 8
}

// DefaultPredicates returns the built-in slice predicates.
func DefaultPredicates() []Predicate {
	return []Predicate{
		{Name: "nlp_llm", Match: NLPLLM},
		{Name: "short_text", Match: ShortText},
	}
}

// Slices computes micro-averaged precision, recall and F1 within each
// predicate's matching subset. Predicates matching no examples are omitted
// from the result entirely; every returned record has NumSamples > 0.
// Predicates may overlap.
func Slices(yTrue, yPred []int, examples []Example, preds []Predicate) (map[string]Record, error) {
	if len(yTrue) != len(yPred) {
		return nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(yTrue), len(yPred))
	}
	if len(examples) != len(yTrue) {
		return nil, fmt.Errorf("%w: %d examples for %d labels", ErrLengthMismatch, len(examples), len(yTrue))
	}

	out := make(map[string]Record, len(preds))
	for _, pred := range preds {
		// Micro averaging pools TP/FP/FN across classes. In single-label
		// classification the pooled precision, recall and F1 all reduce to
		// subset accuracy.
		var matched, correct int
		for i, x := range examples {
			if !pred.Match(x) {
				continue
			}
			matched++
			if yTrue[i] == yPred[i] {
				correct++
			}
		}
		if matched == 0 {
			continue
		}

		acc := float64(correct) / float64(matched)
		out[pred.Name] = Record{
			Precision:  acc,
			Recall:     acc,
			F1:         acc,
			NumSamples: float64(matched),
		}
	}
	return out, nil
}
