// Package harness wires the evaluation workflow together: it resolves a
// run's best checkpoint, loads the holdout set, runs inference and computes
// the metrics report.
package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	tagcat "github.com/tagcat/go-tagcat"
	"github.com/tagcat/go-tagcat/eval"
	"github.com/tagcat/go-tagcat/internal/dataset"
	"github.com/tagcat/go-tagcat/internal/labels"
	"github.com/tagcat/go-tagcat/internal/runstore"
)

// Predictor is the model layer the harness drives. *tagcat.Classifier
// satisfies it; tests substitute a fake.
type Predictor interface {
	PredictBatch(ctx context.Context, texts []string) ([]tagcat.Prediction, error)
	Close() error
}

// PredictorFactory builds a Predictor for a resolved checkpoint.
type PredictorFactory func(cp runstore.Checkpoint, classes []string, p Params) (Predictor, error)

// Params controls one evaluation.
type Params struct {
	RunID       string
	DatasetPath string
	ResultsPath string // optional: write the JSON report here
	SlicesPath  string // optional: extra slice definitions (YAML)
	PoolSize    int
	MaxSeqLen   int
}

// Harness runs evaluations against a run registry.
type Harness struct {
	store   *runstore.Store
	factory PredictorFactory
	logger  zerolog.Logger
}

// New creates a Harness. A nil factory loads ONNX checkpoints with
// tagcat.New.
func New(store *runstore.Store, factory PredictorFactory, logger zerolog.Logger) *Harness {
	if factory == nil {
		factory = onnxFactory
	}
	return &Harness{store: store, factory: factory, logger: logger}
}

func onnxFactory(cp runstore.Checkpoint, classes []string, p Params) (Predictor, error) {
	opts := []tagcat.Option{}
	if p.PoolSize > 0 {
		opts = append(opts, tagcat.WithPoolSize(p.PoolSize))
	}
	if p.MaxSeqLen > 0 {
		opts = append(opts, tagcat.WithMaxSeqLen(p.MaxSeqLen))
	}
	return tagcat.New(cp.ModelPath, cp.VocabPath, classes, opts...)
}

// Evaluate computes the full metrics report for one run on one holdout set.
func (h *Harness) Evaluate(ctx context.Context, p Params) (*eval.Report, error) {
	run, err := h.store.GetRun(ctx, p.RunID)
	if err != nil {
		return nil, err
	}

	cp, err := h.store.BestCheckpoint(ctx, p.RunID, runstore.ModeMin)
	if err != nil {
		return nil, err
	}
	h.logger.Info().
		Str("run_id", p.RunID).
		Str("model", cp.ModelPath).
		Int("epoch", cp.Epoch).
		Float64("val_loss", cp.ValLoss).
		Msg("resolved best checkpoint")

	ds, err := dataset.Load(p.DatasetPath)
	if err != nil {
		return nil, err
	}
	h.logger.Info().Int("examples", ds.Len()).Str("dataset", p.DatasetPath).Msg("loaded holdout set")

	enc := labels.New(run.Classes)
	yTrue, err := enc.Encode(ds.Tags())
	if err != nil {
		return nil, fmt.Errorf("encoding ground truth: %w", err)
	}

	predictor, err := h.factory(cp, run.Classes, p)
	if err != nil {
		return nil, fmt.Errorf("loading predictor: %w", err)
	}
	defer func() { _ = predictor.Close() }()

	preds, err := predictor.PredictBatch(ctx, ds.Texts())
	if err != nil {
		return nil, fmt.Errorf("running inference: %w", err)
	}
	yPred := make([]int, len(preds))
	for i, pred := range preds {
		yPred[i] = pred.Index
	}

	predicates := eval.DefaultPredicates()
	if p.SlicesPath != "" {
		extra, err := LoadSlices(p.SlicesPath)
		if err != nil {
			return nil, err
		}
		predicates = append(predicates, extra...)
	}

	report, err := eval.NewReport(p.RunID, yTrue, yPred, run.Classes, ds.Examples, predicates)
	if err != nil {
		return nil, err
	}

	h.logger.Info().
		Float64("precision", report.Overall.Precision).
		Float64("recall", report.Overall.Recall).
		Float64("f1", report.Overall.F1).
		Msg("evaluation complete")

	if p.ResultsPath != "" {
		if err := writeReport(report, p.ResultsPath); err != nil {
			return nil, err
		}
		h.logger.Info().Str("path", p.ResultsPath).Msg("wrote results")
	}

	return report, nil
}

// writeReport writes the report as indented JSON.
func writeReport(report *eval.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
