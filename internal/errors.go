package internal

import "errors"

var (
	ErrEmptyQuery       = errors.New("empty query")
	ErrNoMatch          = errors.New("no matching emoji")
	ErrMemoNotFound     = errors.New("memo not found")
	ErrModelUnavailable = errors.New("model unavailable")
	ErrConfigIO         = errors.New("config i/o")
	ErrInvalidIndex     = errors.New("invalid index reference")

	// ErrNoEmoji is returned when a model completion contains no emoji.
	ErrNoEmoji = errors.New("model did not generate an emoji")

	ErrInvalidLength = errors.New("sentence length must be greater than 0")
)
