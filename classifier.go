package tagcat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/tagcat/go-tagcat/inference"
	"github.com/tagcat/go-tagcat/tokenizer"
)

// defaultMaxSeqLen is the token truncation length. Fine-tuned BERT-family
// checkpoints support up to 512 positions.
const defaultMaxSeqLen = 512

// Classifier assigns one topic tag to a text using an ONNX checkpoint.
// It is safe for concurrent use.
type Classifier struct {
	tokenizer *tokenizer.Tokenizer
	pool      *inference.Pool
	classes   []string
	maxSeqLen int
	logger    *slog.Logger
}

// Prediction is the classifier output for one text.
type Prediction struct {
	Index      int       // class index (position in the class list)
	Label      string    // class name
	Confidence float32   // softmax probability of the predicted class
	Probs      []float32 // full softmax distribution, one entry per class
}

// New creates a Classifier from a checkpoint, a vocabulary file and the
// ordered class list the checkpoint was trained with.
func New(modelPath, vocabPath string, classes []string, opts ...Option) (*Classifier, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if len(classes) == 0 {
		return nil, ErrNoClasses
	}

	if _, err := os.Stat(modelPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelPath)
		}
		return nil, fmt.Errorf("checking model file: %w", err)
	}

	tok, err := tokenizer.New(vocabPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenizerFailed, err)
	}

	pool, err := inference.NewPool(modelPath, cfg.poolSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}

	return &Classifier{
		tokenizer: tok,
		pool:      pool,
		classes:   classes,
		maxSeqLen: cfg.maxSeqLen,
		logger:    cfg.logger,
	}, nil
}

// Classes returns the ordered class list.
func (c *Classifier) Classes() []string {
	out := make([]string, len(c.classes))
	copy(out, c.classes)
	return out
}

// Predict classifies a single text.
func (c *Classifier) Predict(ctx context.Context, text string) (Prediction, error) {
	session, err := c.pool.Acquire(ctx)
	if err != nil {
		return Prediction{}, err
	}
	defer c.pool.Release(session)

	return c.predict(ctx, session, text)
}

// PredictBatch classifies texts in order, reusing one session for the whole
// batch. The result has one prediction per input text.
func (c *Classifier) PredictBatch(ctx context.Context, texts []string) ([]Prediction, error) {
	session, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer c.pool.Release(session)

	preds := make([]Prediction, len(texts))
	for i, text := range texts {
		pred, err := c.predict(ctx, session, text)
		if err != nil {
			return nil, fmt.Errorf("predicting example %d: %w", i, err)
		}
		preds[i] = pred
	}
	return preds, nil
}

func (c *Classifier) predict(ctx context.Context, session *inference.Session, text string) (Prediction, error) {
	ids := c.tokenizer.Encode(text, c.maxSeqLen)

	inputIDs := make([]int64, len(ids))
	attentionMask := make([]int64, len(ids))
	for i, id := range ids {
		inputIDs[i] = int64(id)
		attentionMask[i] = 1
	}

	logits, err := session.Classify(ctx, inputIDs, attentionMask)
	if err != nil {
		return Prediction{}, err
	}
	if len(logits) != len(c.classes) {
		return Prediction{}, fmt.Errorf("%w: got %d logits for %d classes",
			ErrClassCountMismatch, len(logits), len(c.classes))
	}

	probs := softmax(logits)
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}

	c.logger.Debug("classified text",
		slog.Int("tokens", len(ids)),
		slog.String("label", c.classes[best]),
		slog.Float64("confidence", float64(probs[best])))

	return Prediction{
		Index:      best,
		Label:      c.classes[best],
		Confidence: probs[best],
		Probs:      probs,
	}, nil
}

// Close releases all resources.
func (c *Classifier) Close() error {
	if c.pool != nil {
		return c.pool.Close()
	}
	return nil
}

// softmax converts logits to probabilities, shifted by the max logit for
// numerical stability.
func softmax(logits []float32) []float32 {
	if len(logits) == 0 {
		return nil
	}

	maxLogit := logits[0]
	for _, l := range logits[1:] {
		if l > maxLogit {
			maxLogit = l
		}
	}

	probs := make([]float32, len(logits))
	var sum float64
	for i, l := range logits {
		e := math.Exp(float64(l - maxLogit))
		probs[i] = float32(e)
		sum += e
	}
	for i := range probs {
		probs[i] = float32(float64(probs[i]) / sum)
	}
	return probs
}
