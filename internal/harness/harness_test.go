package harness

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tagcat "github.com/tagcat/go-tagcat"
	"github.com/tagcat/go-tagcat/internal/runstore"
)

// fakePredictor returns canned class indices in order.
type fakePredictor struct {
	indices []int
	classes []string
	closed  bool
}

func (f *fakePredictor) PredictBatch(_ context.Context, texts []string) ([]tagcat.Prediction, error) {
	preds := make([]tagcat.Prediction, len(texts))
	for i := range texts {
		idx := f.indices[i]
		preds[i] = tagcat.Prediction{Index: idx, Label: f.classes[idx], Confidence: 1}
	}
	return preds, nil
}

func (f *fakePredictor) Close() error {
	f.closed = true
	return nil
}

func writeHoldout(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "holdout.csv")
	content := "text,tag\n" +
		"A new BERT model,natural-language-processing\n" +
		"Pipelines for model serving,mlops\n" +
		"Object detection with YOLO,computer-vision\n" +
		"Image segmentation survey,computer-vision\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func setupRun(t *testing.T, store *runstore.Store) runstore.Run {
	t.Helper()
	ctx := context.Background()

	run, err := store.CreateRun(ctx, "bert-base",
		[]string{"computer-vision", "mlops", "natural-language-processing"})
	require.NoError(t, err)

	_, err = store.AddCheckpoint(ctx, runstore.Checkpoint{
		RunID:     run.ID,
		ModelPath: "model.onnx",
		VocabPath: "vocab.json",
		Epoch:     3,
		ValLoss:   0.2,
	})
	require.NoError(t, err)
	return run
}

func TestEvaluate(t *testing.T) {
	store, err := runstore.Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	run := setupRun(t, store)

	// Dataset order: nlp, mlops, cv, cv -> true indices 2, 1, 0, 0.
	// Predictions get the last example wrong.
	fake := &fakePredictor{
		indices: []int{2, 1, 0, 1},
		classes: []string{"computer-vision", "mlops", "natural-language-processing"},
	}
	factory := func(cp runstore.Checkpoint, classes []string, p Params) (Predictor, error) {
		assert.Equal(t, "model.onnx", cp.ModelPath)
		return fake, nil
	}

	h := New(store, factory, zerolog.Nop())
	report, err := h.Evaluate(context.Background(), Params{
		RunID:       run.ID,
		DatasetPath: writeHoldout(t),
	})
	require.NoError(t, err)

	assert.Equal(t, run.ID, report.RunID)
	assert.Equal(t, float64(4), report.Overall.NumSamples)
	assert.Len(t, report.PerClass, 3)
	assert.True(t, fake.closed, "predictor should be closed after evaluation")

	// Three of four predictions correct; every example is short, so the
	// short_text slice covers the full set.
	st, ok := report.Slices["short_text"]
	require.True(t, ok)
	assert.Equal(t, float64(4), st.NumSamples)
	assert.InDelta(t, 0.75, st.F1, 1e-9)
}

func TestEvaluate_WritesResults(t *testing.T) {
	store, err := runstore.Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	run := setupRun(t, store)
	fake := &fakePredictor{
		indices: []int{2, 1, 0, 0},
		classes: []string{"computer-vision", "mlops", "natural-language-processing"},
	}
	factory := func(runstore.Checkpoint, []string, Params) (Predictor, error) { return fake, nil }

	resultsPath := filepath.Join(t.TempDir(), "results.json")
	h := New(store, factory, zerolog.Nop())
	_, err = h.Evaluate(context.Background(), Params{
		RunID:       run.ID,
		DatasetPath: writeHoldout(t),
		ResultsPath: resultsPath,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(resultsPath)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "overall")
	assert.Contains(t, decoded, "per_class")
	assert.Contains(t, decoded, "slices")
}

func TestEvaluate_RunNotFound(t *testing.T) {
	store, err := runstore.Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	h := New(store, nil, zerolog.Nop())
	_, err = h.Evaluate(context.Background(), Params{RunID: "ghost", DatasetPath: "x.csv"})
	require.ErrorIs(t, err, runstore.ErrRunNotFound)
}

func TestEvaluate_UnknownLabelInDataset(t *testing.T) {
	store, err := runstore.Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	run, err := store.CreateRun(ctx, "narrow", []string{"computer-vision"})
	require.NoError(t, err)
	_, err = store.AddCheckpoint(ctx, runstore.Checkpoint{RunID: run.ID, ModelPath: "m", VocabPath: "v", ValLoss: 1})
	require.NoError(t, err)

	h := New(store, func(runstore.Checkpoint, []string, Params) (Predictor, error) {
		return &fakePredictor{}, nil
	}, zerolog.Nop())

	_, err = h.Evaluate(ctx, Params{RunID: run.ID, DatasetPath: writeHoldout(t)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encoding ground truth")
}
