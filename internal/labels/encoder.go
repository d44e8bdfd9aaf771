// Package labels maps class names to the integer indices used by models and
// metrics.
package labels

import (
	"fmt"
	"sort"
)

// Encoder is an ordered class-name to index mapping. The class list order is
// the canonical index order; index i always maps to Classes()[i].
type Encoder struct {
	classes []string
	index   map[string]int
}

// New builds an encoder with the given class order. Duplicate names keep
// their first position.
func New(classes []string) *Encoder {
	e := &Encoder{index: make(map[string]int, len(classes))}
	for _, class := range classes {
		if _, ok := e.index[class]; ok {
			continue
		}
		e.index[class] = len(e.classes)
		e.classes = append(e.classes, class)
	}
	return e
}

// Fit builds an encoder from observed tags, assigning indices in sorted
// order of the unique tag names.
func Fit(tags []string) *Encoder {
	seen := make(map[string]bool, len(tags))
	var unique []string
	for _, tag := range tags {
		if !seen[tag] {
			seen[tag] = true
			unique = append(unique, tag)
		}
	}
	sort.Strings(unique)
	return New(unique)
}

// Classes returns the class names in index order.
func (e *Encoder) Classes() []string {
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}

// Len returns the number of classes.
func (e *Encoder) Len() int { return len(e.classes) }

// Index returns the index for a class name.
func (e *Encoder) Index(class string) (int, bool) {
	i, ok := e.index[class]
	return i, ok
}

// Name returns the class name for an index.
func (e *Encoder) Name(i int) (string, bool) {
	if i < 0 || i >= len(e.classes) {
		return "", false
	}
	return e.classes[i], true
}

// Encode converts tags to indices, failing on any tag outside the class
// list.
func (e *Encoder) Encode(tags []string) ([]int, error) {
	out := make([]int, len(tags))
	for i, tag := range tags {
		idx, ok := e.index[tag]
		if !ok {
			return nil, fmt.Errorf("unknown label %q at position %d", tag, i)
		}
		out[i] = idx
	}
	return out, nil
}
