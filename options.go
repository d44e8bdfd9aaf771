package tagcat

import (
	"log/slog"
	"runtime"
)

// Option configures a Classifier.
type Option func(*config)

type config struct {
	poolSize  int
	maxSeqLen int
	logger    *slog.Logger
}

func defaultConfig() config {
	return config{
		poolSize:  runtime.NumCPU(),
		maxSeqLen: defaultMaxSeqLen,
		logger:    slog.Default(),
	}
}

// WithPoolSize sets the ONNX session pool size (default: runtime.NumCPU()).
func WithPoolSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.poolSize = n
		}
	}
}

// WithMaxSeqLen sets the token-sequence truncation length (default: 512).
func WithMaxSeqLen(n int) Option {
	return func(c *config) {
		if n > 2 {
			c.maxSeqLen = n
		}
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
