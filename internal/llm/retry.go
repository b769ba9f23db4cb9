package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// StatusError is a non-200 answer from a chat-completions endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("LLM API error (status %d): %s", e.Code, e.Body)
}

// withRetry retries fn with linear backoff while the provider reports rate
// limiting or overload.
func withRetry(ctx context.Context, fn func() (string, error)) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(retryDelay * time.Duration(attempt)):
			}
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retryable(err) {
			return "", err
		}
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case http.StatusTooManyRequests, http.StatusServiceUnavailable, 529:
			return true
		}
		return false
	}

	var throttled *types.ThrottlingException
	var unavailable *types.ServiceUnavailableException
	var notReady *types.ModelNotReadyException
	return errors.As(err, &throttled) || errors.As(err, &unavailable) || errors.As(err, &notReady)
}
