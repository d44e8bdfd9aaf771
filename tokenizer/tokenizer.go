// Package tokenizer implements BERT-style WordPiece tokenization from a JSON
// vocabulary file.
package tokenizer

import (
	"fmt"
	"strings"
	"unicode"
)

// continuation marks a sub-word piece that does not start a word.
const continuation = "##"

// Tokenizer converts text into vocabulary token IDs using greedy
// longest-match WordPiece. It is immutable after construction and safe for
// concurrent use.
type Tokenizer struct {
	vocab        map[string]int32
	lowercase    bool
	maxWordChars int

	clsID int32
	sepID int32
	unkID int32
	padID int32
}

// New loads a tokenizer from a JSON vocabulary file.
func New(vocabPath string) (*Tokenizer, error) {
	model, err := LoadModel(vocabPath)
	if err != nil {
		return nil, fmt.Errorf("loading vocab: %w", err)
	}
	return NewFromModel(model)
}

// NewFromModel builds a tokenizer from an already-parsed vocabulary.
func NewFromModel(m *Model) (*Tokenizer, error) {
	m.applyDefaults()

	t := &Tokenizer{
		vocab:        m.Vocab,
		lowercase:    m.Lowercase,
		maxWordChars: m.MaxWordChars,
	}

	var ok bool
	if t.unkID, ok = m.Vocab[m.UnkToken]; !ok {
		return nil, fmt.Errorf("vocab missing unknown token %q", m.UnkToken)
	}
	if t.clsID, ok = m.Vocab[m.ClsToken]; !ok {
		return nil, fmt.Errorf("vocab missing classifier token %q", m.ClsToken)
	}
	if t.sepID, ok = m.Vocab[m.SepToken]; !ok {
		return nil, fmt.Errorf("vocab missing separator token %q", m.SepToken)
	}
	// Pad is optional: single-example inference never pads.
	if t.padID, ok = m.Vocab[m.PadToken]; !ok {
		t.padID = -1
	}

	return t, nil
}

// VocabSize returns the number of entries in the vocabulary.
func (t *Tokenizer) VocabSize() int { return len(t.vocab) }

// ClsID returns the classifier token ID.
func (t *Tokenizer) ClsID() int32 { return t.clsID }

// SepID returns the separator token ID.
func (t *Tokenizer) SepID() int32 { return t.sepID }

// UnkID returns the unknown token ID.
func (t *Tokenizer) UnkID() int32 { return t.unkID }

// PadID returns the padding token ID, or -1 if the vocabulary has none.
func (t *Tokenizer) PadID() int32 { return t.padID }

// Encode tokenizes text into vocabulary IDs wrapped in CLS/SEP markers.
// maxLen > 0 truncates the result to at most maxLen IDs, always keeping the
// trailing SEP.
func (t *Tokenizer) Encode(text string, maxLen int) []int32 {
	ids := []int32{t.clsID}
	for _, word := range t.splitWords(text) {
		ids = append(ids, t.encodeWord(word)...)
	}
	ids = append(ids, t.sepID)

	if maxLen > 1 && len(ids) > maxLen {
		ids = ids[:maxLen-1]
		ids = append(ids, t.sepID)
	}
	return ids
}

// splitWords breaks text into whitespace-separated words with punctuation
// runes isolated as their own words, lowercasing if the vocabulary was built
// lowercase.
func (t *Tokenizer) splitWords(text string) []string {
	if t.lowercase {
		text = strings.ToLower(text)
	}

	var words []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush()
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			flush()
			words = append(words, string(r))
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return words
}

// encodeWord applies greedy longest-match WordPiece to a single word. A word
// with any unmatchable span, or one longer than maxWordChars, becomes a
// single UNK.
func (t *Tokenizer) encodeWord(word string) []int32 {
	runes := []rune(word)
	if len(runes) > t.maxWordChars {
		return []int32{t.unkID}
	}

	var pieces []int32
	start := 0
	for start < len(runes) {
		end := len(runes)
		var id int32
		found := false
		for end > start {
			piece := string(runes[start:end])
			if start > 0 {
				piece = continuation + piece
			}
			if v, ok := t.vocab[piece]; ok {
				id = v
				found = true
				break
			}
			end--
		}
		if !found {
			return []int32{t.unkID}
		}
		pieces = append(pieces, id)
		start = end
	}
	return pieces
}
