package ollama

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/nativeways/pathways/internal/llm"
)

// statusError is a non-200 response from the Ollama API, carrying the
// server's own error message when it sent one.
type statusError struct {
	StatusCode int
	Message    string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("ollama: %d %s", e.StatusCode, e.Message)
}

// mapError classifies transport and API failures into llm.ProviderError
// codes. Callers branch on the code, never on Ollama specifics.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return llm.NewProviderError(llm.ErrCodeTimeout, "request timed out or cancelled", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return llm.NewProviderError(llm.ErrCodeTimeout, "request timed out or cancelled", err)
	}

	var se *statusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == 401:
			return llm.NewProviderError(llm.ErrCodeAuthentication, se.Message, err)
		case se.StatusCode == 404 && strings.Contains(strings.ToLower(se.Message), "model"):
			// Ollama 404s both unknown routes and unpulled models; only the
			// latter mentions the model in its message.
			return llm.NewProviderError(llm.ErrCodeModelNotFound, se.Message, err)
		case se.StatusCode >= 500:
			return llm.NewProviderError(llm.ErrCodeServerError, se.Message, err)
		case se.StatusCode >= 400:
			return llm.NewProviderError(llm.ErrCodeInvalidRequest, se.Message, err)
		}
	}

	// Server down or never started: the most common failure for a
	// locally-run model. The string checks catch resolver errors that don't
	// unwrap to a syscall errno.
	if errors.Is(err, syscall.ECONNREFUSED) ||
		strings.Contains(err.Error(), "no such host") ||
		strings.Contains(err.Error(), "dial tcp") {
		return llm.NewProviderError(llm.ErrCodeServerError, "ollama server unreachable", err)
	}

	return llm.NewProviderError(llm.ErrCodeServerError, "ollama error", err)
}
