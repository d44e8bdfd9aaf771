package tokenizer

import (
	"encoding/json"
	"fmt"
	"os"
)

// Model is the on-disk vocabulary format: a JSON document exported by the
// training pipeline alongside the ONNX checkpoint.
type Model struct {
	Lowercase    bool             `json:"lowercase"`
	UnkToken     string           `json:"unk_token"`
	ClsToken     string           `json:"cls_token"`
	SepToken     string           `json:"sep_token"`
	PadToken     string           `json:"pad_token"`
	MaxWordChars int              `json:"max_word_chars"`
	Vocab        map[string]int32 `json:"vocab"`
}

// Defaults for fields the vocab file may omit.
const (
	defaultUnkToken     = "[UNK]"
	defaultClsToken     = "[CLS]"
	defaultSepToken     = "[SEP]"
	defaultPadToken     = "[PAD]"
	defaultMaxWordChars = 100
)

// LoadModel reads and validates a vocabulary file.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vocab file: %w", err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing vocab file: %w", err)
	}
	if len(m.Vocab) == 0 {
		return nil, fmt.Errorf("vocab file %s has empty vocabulary", path)
	}

	m.applyDefaults()
	return &m, nil
}

func (m *Model) applyDefaults() {
	if m.UnkToken == "" {
		m.UnkToken = defaultUnkToken
	}
	if m.ClsToken == "" {
		m.ClsToken = defaultClsToken
	}
	if m.SepToken == "" {
		m.SepToken = defaultSepToken
	}
	if m.PadToken == "" {
		m.PadToken = defaultPadToken
	}
	if m.MaxWordChars <= 0 {
		m.MaxWordChars = defaultMaxWordChars
	}
}
