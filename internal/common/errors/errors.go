// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInputParseFailed ErrorCode = "INPUT_PARSE_FAILED"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"

	ErrCodeAddressUnparseable  ErrorCode = "ADDRESS_UNPARSEABLE"
	ErrCodeAddressVerifyFailed ErrorCode = "ADDRESS_VERIFY_FAILED"

	ErrCodeSearchFailed       ErrorCode = "SEARCH_FAILED"
	ErrCodeSearchTimeout      ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeStaleResponse      ErrorCode = "STALE_RESPONSE"
	ErrCodeUnknownCategory    ErrorCode = "UNKNOWN_CATEGORY"
	ErrCodeDirectoryFailed    ErrorCode = "DIRECTORY_QUERY_FAILED"
	ErrCodeBackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"

	ErrCodePersistenceFailed ErrorCode = "PERSISTENCE_FAILED"

	ErrCodeJourneyGenerationFailed ErrorCode = "JOURNEY_GENERATION_FAILED"
	ErrCodeJourneyPlanInvalid      ErrorCode = "JOURNEY_PLAN_INVALID"
	ErrCodeJourneyNotFound         ErrorCode = "JOURNEY_NOT_FOUND"
	ErrCodeTaskNotFound            ErrorCode = "TASK_NOT_FOUND"

	ErrCodeQuestionnaireMissing   ErrorCode = "QUESTIONNAIRE_MISSING"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeMoverSelectionFailed   ErrorCode = "MOVER_SELECTION_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause so errors.Is reaches sentinel errors.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata returns e with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
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

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
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

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func detailsOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// NewInputParseFailedError reports job variables that are not valid JSON for the worker.
func NewInputParseFailedError(err error) *StandardError {
	return newError(ErrCodeInputParseFailed, "Could not read the request", detailsOf(err), false, err)
}

// NewInvalidInputError reports a missing or malformed field.
func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Some required information is missing", details, false, nil)
}

// NewAddressUnparseableError is raised when no city or state could be derived
// and no fallback is configured.
func NewAddressUnparseableError(raw string) *StandardError {
	return newError(ErrCodeAddressUnparseable, "We couldn't understand that address", fmt.Sprintf("address: %q", raw), false, nil)
}

func NewAddressVerifyFailedError(err error) *StandardError {
	return newError(ErrCodeAddressVerifyFailed, "Address verification is unavailable right now", detailsOf(err), true, err)
}

// NewSearchFailedError wraps a provider search failure for a category.
func NewSearchFailedError(category string, err error) *StandardError {
	return newError(ErrCodeSearchFailed, "Failed to find providers. Please try again.",
		fmt.Sprintf("category: %s, error: %s", category, detailsOf(err)), true, err).
		WithMetadata("category", category)
}

func NewSearchTimeoutError(category string, err error) *StandardError {
	return newError(ErrCodeSearchTimeout, "The provider search took too long. Please try again.",
		fmt.Sprintf("category: %s", category), true, err).
		WithMetadata("category", category)
}

// NewStaleResponseError marks a search response superseded by a newer request.
func NewStaleResponseError(cacheKey string, seq, latest int64, err error) *StandardError {
	return newError(ErrCodeStaleResponse, "A newer search replaced this one",
		fmt.Sprintf("key: %s, seq: %d, latest: %d", cacheKey, seq, latest), false, err)
}

func NewUnknownCategoryError(category string) *StandardError {
	return newError(ErrCodeUnknownCategory, "Unsupported provider category", fmt.Sprintf("category: %s", category), false, nil)
}

func NewDirectoryFailedError(err error) *StandardError {
	return newError(ErrCodeDirectoryFailed, "Failed to find providers. Please try again.", detailsOf(err), true, err)
}

func NewBackendUnavailableError(endpoint string, err error) *StandardError {
	return newError(ErrCodeBackendUnavailable, "The service is temporarily unavailable",
		fmt.Sprintf("endpoint: %s, error: %s", endpoint, detailsOf(err)), true, err)
}

func NewPersistenceFailedError(key string, err error) *StandardError {
	return newError(ErrCodePersistenceFailed, "Could not save your progress",
		fmt.Sprintf("key: %s, error: %s", key, detailsOf(err)), true, err)
}

func NewJourneyGenerationFailedError(err error) *StandardError {
	return newError(ErrCodeJourneyGenerationFailed, "Could not generate your moving plan", detailsOf(err), true, err)
}

func NewJourneyPlanInvalidError(details string) *StandardError {
	return newError(ErrCodeJourneyPlanInvalid, "The generated moving plan was incomplete", details, false, nil)
}

func NewJourneyNotFoundError(journeyID string) *StandardError {
	return newError(ErrCodeJourneyNotFound, "Moving plan not found", fmt.Sprintf("journeyId: %s", journeyID), false, nil)
}

func NewTaskNotFoundError(taskID string) *StandardError {
	return newError(ErrCodeTaskNotFound, "Task not found", fmt.Sprintf("taskId: %s", taskID), false, nil)
}

func NewQuestionnaireMissingError(userID string) *StandardError {
	return newError(ErrCodeQuestionnaireMissing, "Please complete the moving questionnaire first", fmt.Sprintf("userId: %s", userID), false, nil)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Failed to send notification",
		fmt.Sprintf("channel: %s, error: %s", channel, detailsOf(err)), true, err)
}

func NewMoverSelectionFailedError(err error) *StandardError {
	return newError(ErrCodeMoverSelectionFailed, "Failed to select the mover. Please try again.", detailsOf(err), true, err)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes where they differ.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInputParseFailed:   "INVALID_INPUT",
	ErrCodeSearchTimeout:      "SEARCH_FAILED",
	ErrCodeDirectoryFailed:    "SEARCH_FAILED",
	ErrCodeBackendUnavailable: "BACKEND_UNAVAILABLE",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeSearchFailed,
		ErrCodeDirectoryFailed,
		ErrCodeBackendUnavailable,
		ErrCodePersistenceFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeMoverSelectionFailed:
		return 3

	case ErrCodeSearchTimeout,
		ErrCodeAddressVerifyFailed,
		ErrCodeJourneyGenerationFailed:
		return 1

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandard returns the StandardError in err's chain, or wraps err as an
// internal error. Context deadlines become non-retryable timeouts only when
// nothing more specific is present.
func AsStandard(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return newError("TIMEOUT_ERROR", "The request took too long", err.Error(), true, err)
	}
	return newError("INTERNAL_ERROR", "Unexpected error", detailsOf(err), false, err)
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "ADDRESS"):
		return "ADDRESS"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "DIRECTORY") ||
		strings.Contains(codeStr, "STALE") || strings.Contains(codeStr, "CATEGORY"):
		return "SEARCH"
	case strings.Contains(codeStr, "PERSISTENCE"):
		return "STORAGE"
	case strings.Contains(codeStr, "JOURNEY") || strings.Contains(codeStr, "TASK"):
		return "JOURNEY"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "QUESTIONNAIRE"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "BACKEND") || strings.Contains(codeStr, "MOVER"):
		return "BACKEND"
	case strings.Contains(codeStr, "INPUT"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
