package ask

import "errors"

var (
	// ErrNoAnswerService indicates that no answer service was provided.
	ErrNoAnswerService = errors.New("answer service is required")

	// ErrEmptyAnswer indicates the service returned neither a result nor an error.
	ErrEmptyAnswer = errors.New("answer service returned no result")
)
