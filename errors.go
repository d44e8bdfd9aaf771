package tagcat

import "errors"

// Sentinel errors for conditions callers may need to handle differently.
var (
	// ErrModelNotFound indicates the checkpoint file does not exist.
	ErrModelNotFound = errors.New("tagcat: model file not found")

	// ErrInvalidModel indicates the checkpoint exists but could not be loaded.
	ErrInvalidModel = errors.New("tagcat: invalid model format")

	// ErrTokenizerFailed indicates the vocabulary could not be loaded.
	ErrTokenizerFailed = errors.New("tagcat: tokenizer initialization failed")

	// ErrNoClasses indicates an empty class list was supplied.
	ErrNoClasses = errors.New("tagcat: no classes configured")

	// ErrClassCountMismatch indicates the model emits a different number of
	// classes than the configured class list.
	ErrClassCountMismatch = errors.New("tagcat: model output does not match class count")
)
