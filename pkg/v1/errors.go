package v1

import "github.com/4thel00z/emo/internal"

// Errors returned by the client, for use with errors.Is.
var (
	ErrEmptyQuery   = internal.ErrEmptyQuery
	ErrNoMatch      = internal.ErrNoMatch
	ErrMemoNotFound = internal.ErrMemoNotFound
	ErrInvalidIndex = internal.ErrInvalidIndex
	ErrConfigIO     = internal.ErrConfigIO
)
