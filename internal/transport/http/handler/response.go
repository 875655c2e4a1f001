package handler

import (
	apperrors "intent-service/internal/common/errors"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error ErrorInfo `json:"error"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func respondError(c *gin.Context, err error) {
	stdErr := apperrors.Normalize(err)

	message := stdErr.Message
	if stdErr.Code == apperrors.ErrCodeInvalidInput || stdErr.Code == apperrors.ErrCodeBatchTooLarge {
		if stdErr.Details != "" {
			message = stdErr.Message + ": " + stdErr.Details
		}
	}

	c.AbortWithStatusJSON(apperrors.HTTPStatus(stdErr.Code), ErrorResponse{
		Error: ErrorInfo{
			Code:      string(stdErr.Code),
			Message:   message,
			RequestID: c.GetString("request_id"),
		},
	})
}
