package intent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	apperrors "intent-service/internal/common/errors"
	"intent-service/internal/embedding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_Handle_EndToEnd(t *testing.T) {
	svc := newTestService(t, &keywordEmbedder{}, 0.5)

	tests := []struct {
		name        string
		text        string
		wantIntent  Label
		wantOrder   string
		wantMinConf float64
	}{
		{"order info with number sign", "Где мой заказ №12345?", OrderInfo, "12345", 0.5},
		{"delivery with inflected order word", "Когда приедет доставка по заказу 777?", Delivery, "777", 0.5},
		{"hash number beats order word", "#12345 заказ 999", OrderInfo, "12345", 0.5},
		{"no keywords", "Добрый день", Unknown, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Handle(context.Background(), tt.text, "test")
			require.NoError(t, err)

			assert.Equal(t, tt.wantIntent, got.Intent)
			assert.Equal(t, tt.wantOrder, got.OrderNumber)
			assert.GreaterOrEqual(t, got.Confidence, tt.wantMinConf)
			assert.LessOrEqual(t, got.Confidence, 1.0)
		})
	}
}

func TestService_Handle_EmptyInputShortCircuits(t *testing.T) {
	emb := &keywordEmbedder{}
	svc := newTestService(t, emb, 0.5)
	before := emb.calls.Load()

	for _, text := range []string{"", "   \t"} {
		got, err := svc.Handle(context.Background(), text, "test")
		require.NoError(t, err)
		assert.Equal(t, Result{Intent: Unknown, Confidence: 0}, got)
		assert.False(t, got.HasOrderNumber())
	}
	assert.Equal(t, before, emb.calls.Load())
}

func TestService_Handle_OrderNumberKeptForAnyIntent(t *testing.T) {
	svc := newTestService(t, &keywordEmbedder{}, 0.99)

	got, err := svc.Handle(context.Background(), "привет #4242", "test")
	require.NoError(t, err)

	assert.Equal(t, Unknown, got.Intent)
	assert.Equal(t, "4242", got.OrderNumber)
}

func TestService_Handle_ModelUnavailable(t *testing.T) {
	emb := &keywordEmbedder{}
	svc := newTestService(t, emb, 0.5)
	emb.err = fmt.Errorf("%w: dial tcp: connection refused", embedding.ErrUnavailable)

	got, err := svc.Handle(context.Background(), "Где мой заказ №12345?", "test")

	require.Error(t, err)
	assert.Equal(t, Result{}, got)
	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeModelUnavailable, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestService_Handle_Concurrent(t *testing.T) {
	svc := newTestService(t, &keywordEmbedder{}, 0.5)

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := svc.Handle(context.Background(), "Когда приедет доставка по заказу 777?", "test")
			if err != nil {
				errs <- err
				return
			}
			if got.Intent != Delivery || got.OrderNumber != "777" {
				errs <- errors.New("unexpected result")
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestService_HandleBatch(t *testing.T) {
	emb := &keywordEmbedder{}
	svc := newTestService(t, emb, 0.5)
	before := emb.calls.Load()

	got, err := svc.HandleBatch(context.Background(), []string{
		"Где мой заказ №12345?",
		"",
		"Когда приедет доставка по заказу 777?",
	}, "test")
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, OrderInfo, got[0].Intent)
	assert.Equal(t, "12345", got[0].OrderNumber)
	assert.Equal(t, Result{Intent: Unknown, Confidence: 0}, got[1])
	assert.Equal(t, Delivery, got[2].Intent)
	assert.Equal(t, "777", got[2].OrderNumber)

	// One backend call for the whole batch.
	assert.Equal(t, before+1, emb.calls.Load())

	for i, text := range []string{"Где мой заказ №12345?", "", "Когда приедет доставка по заказу 777?"} {
		single, err := svc.Handle(context.Background(), text, "test")
		require.NoError(t, err)
		assert.Equal(t, single, got[i])
	}
}

func TestService_HandleBatch_AllOrNothing(t *testing.T) {
	emb := &keywordEmbedder{}
	svc := newTestService(t, emb, 0.5)
	emb.err = embedding.ErrTimeout

	got, err := svc.HandleBatch(context.Background(), []string{"заказ 1", "трек"}, "test")

	require.Error(t, err)
	assert.Nil(t, got)
	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeEmbeddingTimeout, stdErr.Code)
}

func TestService_HandleBatch_OnlyEmptyTexts(t *testing.T) {
	emb := &keywordEmbedder{}
	svc := newTestService(t, emb, 0.5)
	before := emb.calls.Load()

	got, err := svc.HandleBatch(context.Background(), []string{"", " "}, "test")
	require.NoError(t, err)
	assert.Equal(t, []Result{{Intent: Unknown}, {Intent: Unknown}}, got)
	assert.Equal(t, before, emb.calls.Load())
}
