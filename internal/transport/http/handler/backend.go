package handler

import (
	"context"
	"errors"
	"sync/atomic"

	apperrors "intent-service/internal/common/errors"
	"intent-service/internal/intent"
)

// IntentService is what the handlers need from intent.Service.
type IntentService interface {
	Handle(ctx context.Context, raw string, source string) (intent.Result, error)
	HandleBatch(ctx context.Context, raws []string, source string) ([]intent.Result, error)
}

// Backend publishes the service once the reference index is built. Until
// then classification answers 503.
type Backend struct {
	v atomic.Value
}

type serviceBox struct {
	svc IntentService
}

func NewBackend() *Backend {
	return &Backend{}
}

// Set makes svc visible to handlers. It may be called once.
func (b *Backend) Set(svc IntentService) {
	b.v.Store(serviceBox{svc: svc})
}

// Get returns the service, or a MODEL_UNAVAILABLE error while warming up.
func (b *Backend) Get() (IntentService, error) {
	box, ok := b.v.Load().(serviceBox)
	if !ok || box.svc == nil {
		return nil, apperrors.NewModelUnavailableError(errors.New("reference index is not built yet"))
	}
	return box.svc, nil
}

func (b *Backend) Ready() bool {
	_, err := b.Get()
	return err == nil
}
