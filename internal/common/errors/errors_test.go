package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackendDown = stderrors.New("connection refused")

func TestStandardError_UnwrapReachesCause(t *testing.T) {
	stdErr := NewSearchFailedError("moving", errBackendDown)
	wrapped := fmt.Errorf("search moving: %w", stdErr)

	assert.True(t, stderrors.Is(wrapped, errBackendDown))
	assert.Equal(t, "moving", stdErr.Metadata["category"])
	assert.Contains(t, stdErr.Details, "connection refused")
}

func TestAsStandard(t *testing.T) {
	t.Run("keeps standard error in chain", func(t *testing.T) {
		orig := NewTaskNotFoundError("t-1")
		got := AsStandard(fmt.Errorf("toggle: %w", orig))
		assert.Same(t, orig, got)
	})

	t.Run("maps deadline to retryable timeout", func(t *testing.T) {
		got := AsStandard(fmt.Errorf("call: %w", context.DeadlineExceeded))
		assert.Equal(t, ErrorCode("TIMEOUT_ERROR"), got.Code)
		assert.True(t, got.Retryable)
	})

	t.Run("wraps unknown error as internal", func(t *testing.T) {
		got := AsStandard(stderrors.New("weird"))
		assert.Equal(t, ErrorCode("INTERNAL_ERROR"), got.Code)
		assert.False(t, got.Retryable)
		assert.Equal(t, "weird", got.Details)
	})
}

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantCode    string
		wantRetries int
	}{
		{"search failed retries", NewSearchFailedError("utilities", errBackendDown), "SEARCH_FAILED", 3},
		{"timeout maps to search failed", NewSearchTimeoutError("housing", context.DeadlineExceeded), "SEARCH_FAILED", 1},
		{"stale response is business", NewStaleResponseError("k", 1, 2, nil), "STALE_RESPONSE", 0},
		{"input parse maps to invalid input", NewInputParseFailedError(errBackendDown), "INVALID_INPUT", 0},
		{"task not found", NewTaskNotFoundError("x"), "TASK_NOT_FOUND", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.wantCode, bpmn.Code)
			assert.Equal(t, tt.wantRetries, bpmn.Retries)

			vars := bpmn.ToErrorVariables()
			assert.Equal(t, string(tt.err.Code), vars["originalErrorCode"])
			assert.Equal(t, tt.err.Message, vars["errorMessage"])
		})
	}
}

func TestConvertToBPMNError_NonRetryableZeroesRetries(t *testing.T) {
	e := NewSearchFailedError("moving", errBackendDown)
	e.Retryable = false
	assert.Equal(t, 0, ConvertToBPMNError(e).Retries)
}

func TestGetErrorCategory(t *testing.T) {
	tests := map[ErrorCode]string{
		ErrCodeAddressUnparseable:      "ADDRESS",
		ErrCodeSearchFailed:            "SEARCH",
		ErrCodeStaleResponse:           "SEARCH",
		ErrCodeDirectoryFailed:         "SEARCH",
		ErrCodePersistenceFailed:       "STORAGE",
		ErrCodeJourneyPlanInvalid:      "JOURNEY",
		ErrCodeTaskNotFound:            "JOURNEY",
		ErrCodeQuestionnaireMissing:    "NOTIFICATION",
		ErrCodeBackendUnavailable:      "BACKEND",
		ErrCodeInvalidInput:            "VALIDATION",
		ErrorCode("SOMETHING_ELSE"):    "OTHER",
	}
	for code, want := range tests {
		assert.Equal(t, want, GetErrorCategory(code), string(code))
	}
}

func TestUserMessagesAreGeneric(t *testing.T) {
	errs := []*StandardError{
		NewSearchFailedError("moving", errBackendDown),
		NewPersistenceFailedError("completedTasks", errBackendDown),
		NewBackendUnavailableError("/api/select-mover", errBackendDown),
	}
	for _, e := range errs {
		require.NotEmpty(t, e.Message)
		assert.NotContains(t, e.Message, "connection refused")
	}
}
