package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	apperrors "intent-service/internal/common/errors"
	"intent-service/internal/common/metrics"
	"intent-service/internal/common/validation"
	"intent-service/internal/intent"

	"github.com/gin-gonic/gin"
)

type classifyRequest struct {
	Text string `json:"text"`
}

type batchRequest struct {
	Texts []string `json:"texts"`
}

// BatchResponse wraps per-text results in request order.
type BatchResponse struct {
	Results []intent.Result `json:"results"`
}

// ClassifyHandler serves POST /classify and POST /classify/batch.
type ClassifyHandler struct {
	backend        *Backend
	validator      *validation.Validator
	batchValidator *validation.Validator
	maxBatch       int
	timeout        time.Duration
}

func NewClassifyHandler(backend *Backend, maxBatch int, timeout time.Duration) (*ClassifyHandler, error) {
	v, err := validation.NewClassifyValidator()
	if err != nil {
		return nil, err
	}
	bv, err := validation.NewBatchValidator(maxBatch)
	if err != nil {
		return nil, err
	}
	return &ClassifyHandler{
		backend:        backend,
		validator:      v,
		batchValidator: bv,
		maxBatch:       maxBatch,
		timeout:        timeout,
	}, nil
}

// Classify handles POST /classify
func (h *ClassifyHandler) Classify(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if res := h.validator.ValidateBytes(body); !res.Valid {
		respondError(c, apperrors.NewInvalidInputError(res.Summary()))
		return
	}

	var req classifyRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(c, apperrors.NewInvalidInputError(err.Error()))
		return
	}

	svc, err := h.backend.Get()
	if err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	result, err := svc.Handle(ctx, req.Text, metrics.SourceHTTP)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ClassifyBatch handles POST /classify/batch
func (h *ClassifyHandler) ClassifyBatch(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if res := h.batchValidator.ValidateBytes(body); !res.Valid {
		var loose struct {
			Texts []json.RawMessage `json:"texts"`
		}
		if json.Unmarshal(body, &loose) == nil && len(loose.Texts) > h.maxBatch {
			respondError(c, apperrors.NewBatchTooLargeError(len(loose.Texts), h.maxBatch))
			return
		}
		respondError(c, apperrors.NewInvalidInputError(res.Summary()))
		return
	}

	var req batchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(c, apperrors.NewInvalidInputError(err.Error()))
		return
	}

	svc, err := h.backend.Get()
	if err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	results, err := svc.HandleBatch(ctx, req.Texts, metrics.SourceHTTP)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, BatchResponse{Results: results})
}

func (h *ClassifyHandler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

func readBody(c *gin.Context) ([]byte, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperrors.NewInvalidInputError("request body is too large")
		}
		return nil, apperrors.NewInvalidInputError("cannot read request body")
	}
	return body, nil
}
