package errors

import "fmt"

// Application error types organized by category for better error handling

type ErrorType int

// Domain/Business Logic Errors - errors related to enrichment rules and validation
const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeValidation
	ErrorTypeNotFound
	ErrorTypeRegionMismatch

	// Infrastructure Errors - errors related to external systems and services
	ErrorTypeProviderUnavailable
	ErrorTypeAuthentication
	ErrorTypeDatabase
	ErrorTypeCache

	// System/Configuration Errors - errors related to system setup and configuration
	ErrorTypeConfiguration
)

// String returns the string representation of error type
func (e ErrorType) String() string {
	switch e {
	case ErrorTypeValidation:
		return "VALIDATION_ERROR"
	case ErrorTypeNotFound:
		return "NOT_FOUND_ERROR"
	case ErrorTypeRegionMismatch:
		return "REGION_MISMATCH_ERROR"
	case ErrorTypeProviderUnavailable:
		return "PROVIDER_UNAVAILABLE_ERROR"
	case ErrorTypeAuthentication:
		return "AUTHENTICATION_ERROR"
	case ErrorTypeDatabase:
		return "DATABASE_ERROR"
	case ErrorTypeCache:
		return "CACHE_ERROR"
	case ErrorTypeConfiguration:
		return "CONFIGURATION_ERROR"
	default:
		return "UNKNOWN_ERROR"
	}
}

// Short aliases kept for readability at call sites
const (
	ValidationError          = ErrorTypeValidation
	NotFoundError            = ErrorTypeNotFound
	RegionMismatchError      = ErrorTypeRegionMismatch
	ProviderUnavailableError = ErrorTypeProviderUnavailable
	AuthenticationError      = ErrorTypeAuthentication
	DatabaseError            = ErrorTypeDatabase
	CacheError               = ErrorTypeCache
	ConfigurationError       = ErrorTypeConfiguration
)

type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type.String(), e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type.String(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(errorType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
	}
}

func Wrap(errorType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// Domain/Business Logic Error Constructors
func NewValidationError(message string) *AppError {
	return New(ValidationError, message)
}

// NewNotFoundError marks a provider answering "no such place". The resolver
// continues with the next provider in the chain.
func NewNotFoundError(message string) *AppError {
	return New(NotFoundError, message)
}

// NewRegionMismatchError marks a result whose coordinates fall outside the
// configured region envelope. Treated like NotFound by the resolver so a
// lower-priority provider can still supply an in-region match.
func NewRegionMismatchError(message string) *AppError {
	return New(RegionMismatchError, message)
}

// Infrastructure Error Constructors

// NewProviderUnavailableError marks a transport failure, timeout, non-2xx
// status or malformed payload. Distinct from NotFound so an outage is never
// recorded as "address does not exist".
func NewProviderUnavailableError(message string, cause error) *AppError {
	return Wrap(ProviderUnavailableError, message, cause)
}

func NewAuthenticationError(message string, cause error) *AppError {
	return Wrap(AuthenticationError, message, cause)
}

func NewDatabaseError(message string, cause error) *AppError {
	return Wrap(DatabaseError, message, cause)
}

func NewCacheError(message string, cause error) *AppError {
	return Wrap(CacheError, message, cause)
}

// System/Configuration Error Constructors
func NewConfigurationError(message string, cause error) *AppError {
	return Wrap(ConfigurationError, message, cause)
}

// Helper functions for error type checking
func IsNotFoundError(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Type == NotFoundError
	}
	return false
}

func IsRegionMismatchError(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Type == RegionMismatchError
	}
	return false
}

func IsProviderUnavailableError(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Type == ProviderUnavailableError
	}
	return false
}

func IsAuthenticationError(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Type == AuthenticationError
	}
	return false
}

func IsValidationError(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Type == ValidationError
	}
	return false
}

func GetErrorType(err error) ErrorType {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Type
	}
	return ErrorTypeUnknown
}
