package harness

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tagcat/go-tagcat/eval"
)

// sliceRule is one user-defined slice in the YAML config. Conditions are
// ANDed; a rule must set at least one.
type sliceRule struct {
	Name        string   `yaml:"name"`
	TagContains string   `yaml:"tag_contains"`
	AnyTerms    []string `yaml:"any_terms"`
	MaxWords    int      `yaml:"max_words"`
}

type sliceFile struct {
	Slices []sliceRule `yaml:"slices"`
}

// LoadSlices reads extra slice predicates from a YAML file.
func LoadSlices(path string) ([]eval.Predicate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading slice config: %w", err)
	}
	return parseSlices(data)
}

func parseSlices(data []byte) ([]eval.Predicate, error) {
	var file sliceFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing slice config: %w", err)
	}

	preds := make([]eval.Predicate, 0, len(file.Slices))
	seen := make(map[string]bool)
	for i, rule := range file.Slices {
		if rule.Name == "" {
			return nil, fmt.Errorf("slice %d: missing name", i)
		}
		if seen[rule.Name] {
			return nil, fmt.Errorf("slice %q: duplicate name", rule.Name)
		}
		seen[rule.Name] = true

		pred, err := compileRule(rule)
		if err != nil {
			return nil, fmt.Errorf("slice %q: %w", rule.Name, err)
		}
		preds = append(preds, pred)
	}
	return preds, nil
}

// compileRule turns a declarative rule into a predicate closure.
func compileRule(rule sliceRule) (eval.Predicate, error) {
	if rule.TagContains == "" && len(rule.AnyTerms) == 0 && rule.MaxWords <= 0 {
		return eval.Predicate{}, fmt.Errorf("no conditions set")
	}

	terms := make([]string, len(rule.AnyTerms))
	for i, term := range rule.AnyTerms {
		terms[i] = strings.ToLower(term)
	}

	match := func(x eval.Example) bool {
		if rule.TagContains != "" && !strings.Contains(x.Tag, rule.TagContains) {
			return false
		}
		if rule.MaxWords > 0 && len(strings.Fields(x.Text)) >= rule.MaxWords {
			return false
		}
		if len(terms) > 0 {
			text := strings.ToLower(x.Text)
			found := false
			for _, term := range terms {
				if strings.Contains(text, term) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	}

	return eval.Predicate{Name: rule.Name, Match: match}, nil
}
