package tagcat

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"
)

const (
	testModelPath = "testdata/model.onnx"
	testVocabPath = "testdata/vocab.json"
)

var testClasses = []string{"computer-vision", "mlops", "natural-language-processing", "other"}

// skipIfNoModel skips the test if the ONNX checkpoint is not available.
func skipIfNoModel(t *testing.T) {
	t.Helper()
	if _, err := os.Stat(testModelPath); err != nil {
		t.Skipf("Skipping: ONNX model not available at %s", testModelPath)
	}
	if _, err := os.Stat(testVocabPath); err != nil {
		t.Skipf("Skipping: vocab not available at %s", testVocabPath)
	}
}

func TestNew(t *testing.T) {
	skipIfNoModel(t)

	clf, err := New(testModelPath, testVocabPath, testClasses)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer func() { _ = clf.Close() }()

	if clf.tokenizer == nil {
		t.Error("expected non-nil tokenizer")
	}
	if clf.pool == nil {
		t.Error("expected non-nil pool")
	}
	if got := clf.Classes(); len(got) != len(testClasses) {
		t.Errorf("Classes() has %d entries, want %d", len(got), len(testClasses))
	}
}

func TestNew_ModelNotFound(t *testing.T) {
	_, err := New("nonexistent/model.onnx", testVocabPath, testClasses)
	if err == nil {
		t.Fatal("expected error for nonexistent model")
	}
	if !errors.Is(err, ErrModelNotFound) {
		t.Errorf("expected ErrModelNotFound, got: %v", err)
	}
}

func TestNew_NoClasses(t *testing.T) {
	_, err := New(testModelPath, testVocabPath, nil)
	if !errors.Is(err, ErrNoClasses) {
		t.Errorf("expected ErrNoClasses, got: %v", err)
	}
}

func TestNew_VocabNotFound(t *testing.T) {
	// A temp file stands in for the model so the model check passes.
	tmpModel, err := os.CreateTemp("", "fake_model_*.onnx")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer func() { _ = os.Remove(tmpModel.Name()) }()
	_ = tmpModel.Close()

	_, err = New(tmpModel.Name(), "nonexistent/vocab.json", testClasses)
	if err == nil {
		t.Fatal("expected error for nonexistent vocab")
	}
	if !errors.Is(err, ErrTokenizerFailed) {
		t.Errorf("expected ErrTokenizerFailed, got: %v", err)
	}
}

func TestPredict(t *testing.T) {
	skipIfNoModel(t)

	clf, err := New(testModelPath, testVocabPath, testClasses, WithPoolSize(1))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer func() { _ = clf.Close() }()

	pred, err := clf.Predict(context.Background(), "Fine-tuning BERT for sentiment analysis")
	if err != nil {
		t.Fatalf("Predict() failed: %v", err)
	}

	if pred.Index < 0 || pred.Index >= len(testClasses) {
		t.Errorf("Index = %d, out of range", pred.Index)
	}
	if pred.Label != testClasses[pred.Index] {
		t.Errorf("Label = %s, want %s", pred.Label, testClasses[pred.Index])
	}
	if len(pred.Probs) != len(testClasses) {
		t.Errorf("Probs has %d entries, want %d", len(pred.Probs), len(testClasses))
	}
}

func TestSoftmax(t *testing.T) {
	tests := []struct {
		name   string
		logits []float32
	}{
		{"uniform", []float32{0, 0, 0}},
		{"peaked", []float32{10, 0, -10}},
		{"large values", []float32{1000, 999, 998}},
		{"single", []float32{3.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probs := softmax(tt.logits)
			if len(probs) != len(tt.logits) {
				t.Fatalf("len = %d, want %d", len(probs), len(tt.logits))
			}

			var sum float64
			for _, p := range probs {
				if p < 0 || p > 1 {
					t.Errorf("probability %v out of [0,1]", p)
				}
				sum += float64(p)
			}
			if math.Abs(sum-1) > 1e-5 {
				t.Errorf("probabilities sum to %v, want 1", sum)
			}
		})
	}
}

func TestSoftmax_PreservesOrder(t *testing.T) {
	probs := softmax([]float32{1, 3, 2})
	if !(probs[1] > probs[2] && probs[2] > probs[0]) {
		t.Errorf("softmax broke logit ordering: %v", probs)
	}
}

func TestSoftmax_Empty(t *testing.T) {
	if got := softmax(nil); got != nil {
		t.Errorf("softmax(nil) = %v, want nil", got)
	}
}
