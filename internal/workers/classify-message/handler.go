package classifymessage

import (
	"context"
	"fmt"
	"time"

	"intent-service/internal/common/errors"
	"intent-service/internal/common/logger"
	"intent-service/internal/common/metrics"
	"intent-service/internal/common/validation"
	"intent-service/internal/intent"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const TaskType = "classify-message"

// IntentService classifies one customer message.
type IntentService interface {
	Handle(ctx context.Context, raw string, source string) (intent.Result, error)
}

type Handler struct {
	config       *Config
	service      IntentService
	validator    *validation.Validator
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(cfg *Config, service IntentService, log logger.Logger) (*Handler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}

	v, err := validation.NewClassifyValidator()
	if err != nil {
		return nil, err
	}

	log = log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       cfg,
		service:      service,
		validator:    v,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	log := h.logger.With(map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
		"correlationId":      uuid.New().String(),
	})
	log.Info("processing job", nil)

	input, err := h.parseInput(job)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	if err := h.completeJob(ctx, client, job, output); err != nil {
		log.Error("failed to complete job", map[string]interface{}{"error": err.Error()})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	log.Info("job completed", map[string]interface{}{
		"intent":         output.IntentAnalysis.PrimaryIntent,
		"confidence":     output.IntentAnalysis.Confidence,
		"hasOrderNumber": output.OrderNumber != "",
	})
}

// Execute classifies input.Text and maps the result onto process variables.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := h.service.Handle(ctx, input.Text, metrics.SourceWorker)
	if err != nil {
		return nil, err
	}

	return &Output{
		IntentAnalysis: IntentAnalysis{
			PrimaryIntent: result.Intent.String(),
			Confidence:    result.Confidence,
		},
		OrderNumber: result.OrderNumber,
	}, nil
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInvalidInputError("job variables are not a JSON object: " + err.Error())
	}

	if res := h.validator.ValidateDocument(variables); !res.Valid {
		return nil, errors.NewInvalidInputError(res.Summary())
	}

	text, _ := variables["text"].(string)
	return &Input{Text: text}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		return err
	}
	_, err = cmd.Send(ctx)
	return err
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := errors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, stdErr)
}
