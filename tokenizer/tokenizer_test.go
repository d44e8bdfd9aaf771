package tokenizer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// testModel builds a small vocabulary covering the cases the tests exercise.
func testModel() *Model {
	return &Model{
		Lowercase: true,
		Vocab: map[string]int32{
			"[PAD]":   0,
			"[UNK]":   1,
			"[CLS]":   2,
			"[SEP]":   3,
			"bert":    4,
			"model":   5,
			"train":   6,
			"##ing":   7,
			"a":       8,
			"new":     9,
			".":       10,
			"!":       11,
			"trans":   12,
			"##form":  13,
			"##er":    14,
			"detect":  15,
			"##ion":   16,
			"##s":     17,
		},
	}
}

func newTestTokenizer(t *testing.T) *Tokenizer {
	t.Helper()
	tok, err := NewFromModel(testModel())
	if err != nil {
		t.Fatalf("NewFromModel failed: %v", err)
	}
	return tok
}

func TestNewFromModel_SpecialTokens(t *testing.T) {
	tok := newTestTokenizer(t)

	if tok.ClsID() != 2 {
		t.Errorf("ClsID = %d, want 2", tok.ClsID())
	}
	if tok.SepID() != 3 {
		t.Errorf("SepID = %d, want 3", tok.SepID())
	}
	if tok.UnkID() != 1 {
		t.Errorf("UnkID = %d, want 1", tok.UnkID())
	}
	if tok.PadID() != 0 {
		t.Errorf("PadID = %d, want 0", tok.PadID())
	}
	if tok.VocabSize() != len(testModel().Vocab) {
		t.Errorf("VocabSize = %d, want %d", tok.VocabSize(), len(testModel().Vocab))
	}
}

func TestNewFromModel_MissingSpecialToken(t *testing.T) {
	m := testModel()
	delete(m.Vocab, "[CLS]")
	if _, err := NewFromModel(m); err == nil {
		t.Error("expected error for vocab without CLS token")
	}
}

func TestNewFromModel_MissingPadIsOptional(t *testing.T) {
	m := testModel()
	delete(m.Vocab, "[PAD]")
	tok, err := NewFromModel(m)
	if err != nil {
		t.Fatalf("NewFromModel failed: %v", err)
	}
	if tok.PadID() != -1 {
		t.Errorf("PadID = %d, want -1", tok.PadID())
	}
}

func TestEncode(t *testing.T) {
	tok := newTestTokenizer(t)

	tests := []struct {
		name string
		text string
		want []int32
	}{
		{
			name: "simple words",
			text: "a new model",
			want: []int32{2, 8, 9, 5, 3},
		},
		{
			name: "lowercasing",
			text: "A new BERT model",
			want: []int32{2, 8, 9, 4, 5, 3},
		},
		{
			name: "wordpiece continuation",
			text: "training transformers",
			want: []int32{2, 6, 7, 12, 13, 14, 17, 3},
		},
		{
			name: "punctuation split",
			text: "detection!",
			want: []int32{2, 15, 16, 11, 3},
		},
		{
			name: "unknown word",
			text: "zzz model",
			want: []int32{2, 1, 5, 3},
		},
		{
			name: "empty text",
			text: "",
			want: []int32{2, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tok.Encode(tt.text, 0)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Encode(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestEncode_Truncation(t *testing.T) {
	tok := newTestTokenizer(t)

	got := tok.Encode("a new bert model training", 4)
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	if got[0] != tok.ClsID() {
		t.Errorf("first ID = %d, want CLS %d", got[0], tok.ClsID())
	}
	if got[len(got)-1] != tok.SepID() {
		t.Errorf("last ID = %d, want SEP %d", got[len(got)-1], tok.SepID())
	}
}

func TestEncode_LongWordBecomesUnk(t *testing.T) {
	m := testModel()
	m.MaxWordChars = 4
	tok, err := NewFromModel(m)
	if err != nil {
		t.Fatalf("NewFromModel failed: %v", err)
	}

	got := tok.Encode("training", 0)
	want := []int32{2, 1, 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Encode = %v, want %v", got, want)
	}
}

func TestNew_FromFile(t *testing.T) {
	data, err := json.Marshal(testModel())
	if err != nil {
		t.Fatalf("marshal vocab: %v", err)
	}
	path := filepath.Join(t.TempDir(), "vocab.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write vocab: %v", err)
	}

	tok, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if tok.VocabSize() != len(testModel().Vocab) {
		t.Errorf("VocabSize = %d, want %d", tok.VocabSize(), len(testModel().Vocab))
	}
}

func TestNew_FileNotFound(t *testing.T) {
	if _, err := New("testdata/nonexistent.json"); err == nil {
		t.Error("expected error for non-existent file")
	}
}

func TestLoadModel_EmptyVocab(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.json")
	if err := os.WriteFile(path, []byte(`{"vocab":{}}`), 0o644); err != nil {
		t.Fatalf("write vocab: %v", err)
	}
	if _, err := LoadModel(path); err == nil {
		t.Error("expected error for empty vocabulary")
	}
}
