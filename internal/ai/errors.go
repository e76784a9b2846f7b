package ai

import (
	"errors"

	"github.com/kiranshivaraju/projectlens/pkg/models"
)

var (
	// ErrRateLimited is retryable.
	ErrRateLimited = models.ErrCompletionRateLimited
	// ErrTimeout is retryable.
	ErrTimeout = models.ErrCompletionTimeout
	// ErrProvider covers malformed requests and unusable responses; not retryable.
	ErrProvider = models.ErrCompletionProvider
)

// IsRetryable reports whether a completion error may succeed on a later attempt.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTimeout)
}
