package llm

import "fmt"

// ErrorCode classifies provider failures for callers that want to branch on
// them (e.g. disable the advisor on authentication errors, retry nothing).
type ErrorCode string

const (
	ErrCodeTimeout        ErrorCode = "timeout"
	ErrCodeAuthentication ErrorCode = "authentication"
	ErrCodeModelNotFound  ErrorCode = "model_not_found"
	ErrCodeInvalidRequest ErrorCode = "invalid_request"
	ErrCodeServerError    ErrorCode = "server_error"
)

// ProviderError is a typed provider failure.
type ProviderError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// NewProviderError creates a ProviderError wrapping err.
func NewProviderError(code ErrorCode, message string, err error) *ProviderError {
	return &ProviderError{Code: code, Message: message, Err: err}
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("llm %s: %s", e.Code, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }
