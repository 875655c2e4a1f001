package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeBatchTooLarge, http.StatusBadRequest},
		{ErrCodeModelUnavailable, http.StatusServiceUnavailable},
		{ErrCodeEmbeddingTimeout, http.StatusServiceUnavailable},
		{ErrCodeReferenceSetInvalid, http.StatusInternalServerError},
		{ErrCodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.code))
		})
	}
}

func TestRetryPolicy(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeModelUnavailable))
	assert.True(t, IsRetryableErrorCode(ErrCodeEmbeddingTimeout))
	assert.False(t, IsRetryableErrorCode(ErrCodeInvalidInput))
	assert.False(t, IsRetryableErrorCode(ErrCodeReferenceSetInvalid))
	assert.False(t, IsRetryableErrorCode(ErrCodeInternal))
}

func TestAsStandardError_Wrapped(t *testing.T) {
	cause := stderrors.New("connection refused")
	wrapped := fmt.Errorf("classify: %w", NewModelUnavailableError(cause))

	stdErr, ok := AsStandardError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrCodeModelUnavailable, stdErr.Code)
	assert.ErrorIs(t, wrapped, cause)
}

func TestNormalize_UnknownError(t *testing.T) {
	stdErr := Normalize(stderrors.New("boom"))

	assert.Equal(t, ErrCodeInternal, stdErr.Code)
	assert.False(t, stdErr.Retryable)
	assert.Equal(t, "boom", stdErr.Details)
}

func TestConvertToBPMNError(t *testing.T) {
	bpmnErr := ConvertToBPMNError(NewInvalidInputError("text is required"))

	assert.Equal(t, "INVALID_INPUT", bpmnErr.Code)
	assert.False(t, bpmnErr.Retryable)
	assert.Equal(t, 0, bpmnErr.Retries)

	vars := bpmnErr.ToErrorVariables()
	assert.Equal(t, "INVALID_INPUT", vars["errorCode"])
	assert.Equal(t, "text is required", vars["errorDetails"])
	assert.Equal(t, "INVALID_INPUT", vars["originalErrorCode"])
}

func TestShouldRetryAndRetriesLeft(t *testing.T) {
	unavailable := NewModelUnavailableError(stderrors.New("down"))

	assert.True(t, ShouldRetry(unavailable, 3))
	assert.False(t, ShouldRetry(unavailable, 0))
	assert.False(t, ShouldRetry(NewInvalidInputError("bad"), 3))

	// A Retryable flag alone is not enough; the code must carry a retry budget.
	flagged := &StandardError{Code: ErrCodeInternal, Message: "boom", Retryable: true}
	assert.False(t, ShouldRetry(flagged, 3))

	assert.Equal(t, int32(2), RetriesLeft(ErrCodeModelUnavailable, 3))
	assert.Equal(t, int32(3), RetriesLeft(ErrCodeModelUnavailable, 10))
	assert.Equal(t, int32(0), RetriesLeft(ErrCodeModelUnavailable, 1))
	assert.Equal(t, int32(0), RetriesLeft(ErrCodeModelUnavailable, 0))
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "MODEL", GetErrorCategory(ErrCodeModelUnavailable))
	assert.Equal(t, "MODEL", GetErrorCategory(ErrCodeEmbeddingTimeout))
	assert.Equal(t, "CONFIGURATION", GetErrorCategory(ErrCodeReferenceSetInvalid))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidInput))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeBatchTooLarge))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}
