package classifymessage

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"intent-service/internal/common/config"
	"intent-service/internal/common/errors"
	"intent-service/internal/common/logger"
	"intent-service/internal/intent"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Service Implementation
// ==========================

type MockService struct {
	mock.Mock
}

func (m *MockService) Handle(ctx context.Context, raw string, source string) (intent.Result, error) {
	args := m.Called(ctx, raw, source)
	return args.Get(0).(intent.Result), args.Error(1)
}

func createMockJob(key int64, variables interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)

	activatedJob := &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "support-inbox",
		ElementId:          "Activity_ClassifyMessage",
		CustomHeaders:      "{}",
		Worker:             "test-worker",
		Retries:            3,
		Variables:          string(variablesJSON),
	}

	return entities.Job{ActivatedJob: activatedJob}
}

func newTestHandler(t *testing.T, svc IntentService) *Handler {
	t.Helper()
	h, err := NewHandler(DefaultConfig(), svc, logger.NewTestLogger(t))
	require.NoError(t, err)
	return h
}

func TestNewHandler_InvalidConfig(t *testing.T) {
	_, err := NewHandler(&Config{MaxJobsActive: 1}, &MockService{}, logger.NewNoOpLogger())
	assert.Error(t, err)

	_, err = NewHandler(&Config{Timeout: time.Second}, &MockService{}, logger.NewNoOpLogger())
	assert.Error(t, err)
}

func TestHandler_ParseInput(t *testing.T) {
	h := newTestHandler(t, &MockService{})

	tests := []struct {
		name      string
		variables interface{}
		wantText  string
		wantErr   bool
	}{
		{"valid", map[string]interface{}{"text": "Где мой заказ?"}, "Где мой заказ?", false},
		{"empty text is valid", map[string]interface{}{"text": ""}, "", false},
		{"extra variables ignored", map[string]interface{}{"text": "трек", "customerId": 7}, "трек", false},
		{"missing text", map[string]interface{}{"message": "hi"}, "", true},
		{"text is not a string", map[string]interface{}{"text": 42}, "", true},
		{"variables are not an object", []string{"text"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := h.parseInput(createMockJob(1, tt.variables))
			if tt.wantErr {
				require.Error(t, err)
				stdErr, ok := errors.AsStandardError(err)
				require.True(t, ok)
				assert.Equal(t, errors.ErrCodeInvalidInput, stdErr.Code)
				assert.False(t, errors.ShouldRetry(stdErr, 3))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, input.Text)
		})
	}
}

func TestHandler_Execute(t *testing.T) {
	t.Run("maps result with order number", func(t *testing.T) {
		svc := &MockService{}
		svc.On("Handle", mock.Anything, "Где заказ №12345?", "worker").
			Return(intent.Result{Intent: intent.OrderInfo, Confidence: 0.91, OrderNumber: "12345"}, nil)
		h := newTestHandler(t, svc)

		out, err := h.Execute(context.Background(), &Input{Text: "Где заказ №12345?"})

		require.NoError(t, err)
		assert.Equal(t, "ORDER_INFO", out.IntentAnalysis.PrimaryIntent)
		assert.InDelta(t, 0.91, out.IntentAnalysis.Confidence, 1e-9)
		assert.Equal(t, "12345", out.OrderNumber)
		svc.AssertExpectations(t)
	})

	t.Run("order number omitted from variables when absent", func(t *testing.T) {
		svc := &MockService{}
		svc.On("Handle", mock.Anything, "привет", "worker").
			Return(intent.Result{Intent: intent.Unknown, Confidence: 0.2}, nil)
		h := newTestHandler(t, svc)

		out, err := h.Execute(context.Background(), &Input{Text: "привет"})
		require.NoError(t, err)

		data, err := json.Marshal(out)
		require.NoError(t, err)
		assert.JSONEq(t, `{"intentAnalysis":{"primaryIntent":"UNKNOWN","confidence":0.2}}`, string(data))
	})

	t.Run("model unavailable is retryable", func(t *testing.T) {
		svc := &MockService{}
		svc.On("Handle", mock.Anything, "трек", "worker").
			Return(intent.Result{}, errors.NewModelUnavailableError(stderrors.New("connection refused")))
		h := newTestHandler(t, svc)

		_, err := h.Execute(context.Background(), &Input{Text: "трек"})

		require.Error(t, err)
		stdErr := errors.Normalize(err)
		assert.Equal(t, errors.ErrCodeModelUnavailable, stdErr.Code)
		assert.True(t, errors.ShouldRetry(stdErr, 3))
		assert.Equal(t, int32(2), errors.RetriesLeft(stdErr.Code, 3))
	})
}

func TestConfigFromApp(t *testing.T) {
	cfg := &config.Config{Workers: map[string]config.WorkerConfig{
		TaskType: {Enabled: true, MaxJobsActive: 8, Timeout: 1500},
	}}

	wc := ConfigFromApp(cfg)
	assert.True(t, wc.Enabled)
	assert.Equal(t, 8, wc.MaxJobsActive)
	assert.Equal(t, 1500*time.Millisecond, wc.Timeout)

	defaults := ConfigFromApp(&config.Config{})
	assert.True(t, defaults.Enabled)
	assert.Equal(t, 5, defaults.MaxJobsActive)
	assert.NoError(t, defaults.Validate())
}
