package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents fetch failures (transport, TLS, non-2xx status)
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeRateLimit represents a rate limited or blocked fetch
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeParsing represents a listing card that could not be parsed
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeStateCorrupt represents an unreadable seen-id state file
	ErrorTypeStateCorrupt ErrorType = "state_corrupt"
	// ErrorTypeCredentialMissing represents a missing sender credential
	ErrorTypeCredentialMissing ErrorType = "credential_missing"
	// ErrorTypeDelivery represents a failed delivery to one recipient
	ErrorTypeDelivery ErrorType = "delivery"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// AppError is the error type shared by every pipeline stage
type AppError struct {
	Type      ErrorType
	Component string
	Message   string
	Err       error
	Time      time.Time

	// RetryAfter is how long the server asked us to wait; rate limit errors only
	RetryAfter time.Duration
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Component, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Component, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(errType ErrorType, component, message string, err error) *AppError {
	return &AppError{
		Type:      errType,
		Component: component,
		Message:   message,
		Err:       err,
		Time:      time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(component, message string, err error) *AppError {
	return New(ErrorTypeNetwork, component, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(component string, duration time.Duration) *AppError {
	message := fmt.Sprintf("rate limited for %v", duration)
	err := New(ErrorTypeRateLimit, component, message, nil)
	err.RetryAfter = duration
	return err
}

// NewParsing creates a new parsing error
func NewParsing(component, message string, err error) *AppError {
	return New(ErrorTypeParsing, component, message, err)
}

// NewStateCorrupt creates a new state corruption error
func NewStateCorrupt(component, message string, err error) *AppError {
	return New(ErrorTypeStateCorrupt, component, message, err)
}

// NewCredentialMissing creates a new missing credential error
func NewCredentialMissing(component, message string, err error) *AppError {
	return New(ErrorTypeCredentialMissing, component, message, err)
}

// NewDelivery creates a new delivery error
func NewDelivery(component, message string, err error) *AppError {
	return New(ErrorTypeDelivery, component, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(component, message string, err error) *AppError {
	return New(ErrorTypePublisher, component, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *AppError {
	return New(ErrorTypeConfiguration, "config", message, err)
}

// TypeOf returns the type of the first AppError in err's chain, or "" if there is none
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// RetryAfterOf returns the wait requested by a rate limit error in err's
// chain, or zero
func RetryAfterOf(err error) time.Duration {
	var appErr *AppError
	if stderrors.As(err, &appErr) && appErr.Type == ErrorTypeRateLimit {
		return appErr.RetryAfter
	}
	return 0
}

// IsType reports whether err's chain contains an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	return TypeOf(err) == errType
}

func IsNetwork(err error) bool           { return IsType(err, ErrorTypeNetwork) }
func IsRateLimit(err error) bool         { return IsType(err, ErrorTypeRateLimit) }
func IsParsing(err error) bool           { return IsType(err, ErrorTypeParsing) }
func IsStateCorrupt(err error) bool      { return IsType(err, ErrorTypeStateCorrupt) }
func IsCredentialMissing(err error) bool { return IsType(err, ErrorTypeCredentialMissing) }
func IsDelivery(err error) bool          { return IsType(err, ErrorTypeDelivery) }
