package errors

import (
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrCodeAssessmentValidationFailed  ErrorCode = "ASSESSMENT_VALIDATION_FAILED"
	ErrCodeCatalogConfigurationInvalid ErrorCode = "CATALOG_CONFIGURATION_INVALID"
	ErrCodeUnknownCatalogVersion       ErrorCode = "UNKNOWN_CATALOG_VERSION"
	ErrCodeScoringInvariantViolated    ErrorCode = "SCORING_INVARIANT_VIOLATED"

	ErrCodeBenchmarkUnavailable   ErrorCode = "BENCHMARK_UNAVAILABLE"
	ErrCodeBenchmarkRefreshFailed ErrorCode = "BENCHMARK_REFRESH_FAILED"

	ErrCodeDatabaseInsertFailed   ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeQueryExecutionFailed   ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeAssessmentNotFound     ErrorCode = "ASSESSMENT_NOT_FOUND"
	ErrCodeInvalidJobVariables    ErrorCode = "INVALID_JOB_VARIABLES"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout         ErrorCode = "TIMEOUT_ERROR"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// StandardError is the error shape every worker hands to the ErrorHandler.
// Cause keeps the wrapped error reachable through errors.Is and errors.As.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error { return e.Cause }

// WithMetadata attaches a key/value pair that ends up in the BPMN error
// variables.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
}

func NewAssessmentValidationError(err error) *StandardError {
	return newError(ErrCodeAssessmentValidationFailed, "Assessment submission is invalid", err.Error(), false, err)
}

func NewCatalogConfigurationError(err error) *StandardError {
	return newError(ErrCodeCatalogConfigurationInvalid, "Question catalog is misconfigured", err.Error(), false, err)
}

func NewUnknownCatalogVersionError(err error) *StandardError {
	return newError(ErrCodeUnknownCatalogVersion, "Catalog version is not registered", err.Error(), false, err)
}

func NewScoringInvariantError(err error) *StandardError {
	return newError(ErrCodeScoringInvariantViolated, "Scoring input violates engine invariants", err.Error(), false, err)
}

func NewBenchmarkUnavailableError(err error) *StandardError {
	return newError(ErrCodeBenchmarkUnavailable, "Benchmark data unavailable", err.Error(), false, err)
}

func NewBenchmarkRefreshFailedError(err error) *StandardError {
	return newError(ErrCodeBenchmarkRefreshFailed, "Benchmark snapshot refresh failed", err.Error(), true, err)
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert operation failed", err.Error(), true, err)
}

func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true, err)
}

func NewAssessmentNotFoundError(assessmentID string) *StandardError {
	return newError(ErrCodeAssessmentNotFound, "Assessment not found",
		fmt.Sprintf("assessmentId: %s", assessmentID), false, nil)
}

func NewInvalidJobVariablesError(details string) *StandardError {
	return newError(ErrCodeInvalidJobVariables, "Job variables failed schema validation", details, false, nil)
}

func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()), true, err)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service), err.Error(), true, err)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), err.Error(), true, err)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseInsertFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeBenchmarkRefreshFailed,
		ErrCodeExternalService:
		return 3

	case ErrCodeTimeout:
		return 2

	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"errorCategory":     GetErrorCategory(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	s := string(code)
	switch {
	case strings.Contains(s, "VALIDATION") || strings.Contains(s, "INVALID_JOB"):
		return "VALIDATION"
	case strings.Contains(s, "CATALOG") || strings.Contains(s, "SCORING"):
		return "SCORING"
	case strings.Contains(s, "BENCHMARK"):
		return "BENCHMARK"
	case strings.Contains(s, "DATABASE") || strings.Contains(s, "QUERY") || strings.Contains(s, "NOT_FOUND"):
		return "DATABASE"
	case strings.Contains(s, "NOTIFICATION"):
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}
