package intent

import (
	"context"
	"errors"
	"time"

	apperrors "intent-service/internal/common/errors"
	"intent-service/internal/common/logger"
	"intent-service/internal/common/metrics"
	"intent-service/internal/common/observability"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Service normalises a message once, then classifies it and extracts the
// order number concurrently. It never retries and never returns a partial result.
type Service struct {
	classifier *Classifier
	extractor  *Extractor
	obs        *observability.Observability
	logger     logger.Logger
}

func NewService(classifier *Classifier, extractor *Extractor, obs *observability.Observability, log logger.Logger) *Service {
	return &Service{
		classifier: classifier,
		extractor:  extractor,
		obs:        obs,
		logger:     logger.ForComponent(log, "intent-service"),
	}
}

// Handle classifies one raw message. source labels the caller in metrics.
func (s *Service) Handle(ctx context.Context, raw string, source string) (Result, error) {
	start := time.Now()
	ctx, span := s.obs.StartSpan(ctx, "intent.Handle", attribute.String("source", source))

	result, err := s.handle(ctx, raw)

	s.observe(ctx, source, start, []Result{result}, err)
	if err == nil {
		span.SetAttributes(
			attribute.String("intent", result.Intent.String()),
			attribute.Float64("confidence", result.Confidence),
			attribute.Bool("order_number_found", result.HasOrderNumber()),
		)
	}
	observability.EndSpan(span, err)
	return result, err
}

func (s *Service) handle(ctx context.Context, raw string) (Result, error) {
	normalized, err := Normalize(raw)
	if errors.Is(err, ErrEmptyText) {
		return Result{Intent: Unknown, Confidence: 0}, nil
	}

	var (
		verdict     ClassificationResult
		orderNumber string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		verdict, err = s.classifier.Classify(gctx, normalized)
		return err
	})
	g.Go(func() error {
		orderNumber, _ = s.extractor.Extract(normalized)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	return Result{
		Intent:      verdict.Intent,
		Confidence:  verdict.Confidence,
		OrderNumber: orderNumber,
	}, nil
}

// HandleBatch classifies every text with a single embedding call. Either all
// results are returned or an error.
func (s *Service) HandleBatch(ctx context.Context, raws []string, source string) ([]Result, error) {
	start := time.Now()
	ctx, span := s.obs.StartSpan(ctx, "intent.HandleBatch",
		attribute.String("source", source),
		attribute.Int("batch_size", len(raws)),
	)

	results, err := s.handleBatch(ctx, raws)

	s.observe(ctx, source, start, results, err)
	observability.EndSpan(span, err)
	return results, err
}

func (s *Service) handleBatch(ctx context.Context, raws []string) ([]Result, error) {
	results := make([]Result, len(raws))

	var (
		pending []int
		texts   []string
	)
	for i, raw := range raws {
		normalized, err := Normalize(raw)
		if errors.Is(err, ErrEmptyText) {
			results[i] = Result{Intent: Unknown, Confidence: 0}
			continue
		}
		pending = append(pending, i)
		texts = append(texts, normalized)
	}
	if len(texts) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		verdicts, err := s.classifier.ClassifyBatch(gctx, texts)
		if err != nil {
			return err
		}
		for j, i := range pending {
			results[i].Intent = verdicts[j].Intent
			results[i].Confidence = verdicts[j].Confidence
		}
		return nil
	})
	orderNumbers := make([]string, len(texts))
	g.Go(func() error {
		for j, t := range texts {
			orderNumbers[j], _ = s.extractor.Extract(t)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for j, i := range pending {
		results[i].OrderNumber = orderNumbers[j]
	}
	return results, nil
}

func (s *Service) observe(ctx context.Context, source string, start time.Time, results []Result, err error) {
	elapsed := time.Since(start)
	metrics.ClassificationDuration.WithLabelValues(source).Observe(elapsed.Seconds())

	if err != nil {
		code := apperrors.Normalize(err).Code
		metrics.ClassificationFailures.WithLabelValues(string(code)).Inc()
		s.obs.RecordClassification(ctx, "error")
		s.obs.RecordClassificationDuration(ctx, elapsed, "error")
		s.logger.Error("classification failed", map[string]interface{}{
			"source":    source,
			"errorCode": string(code),
			"error":     err,
		})
		return
	}

	s.obs.RecordClassification(ctx, "success")
	s.obs.RecordClassificationDuration(ctx, elapsed, "success")
	for _, r := range results {
		metrics.ClassificationsTotal.WithLabelValues(r.Intent.String()).Inc()
		if r.HasOrderNumber() {
			metrics.OrderNumbersExtracted.Inc()
		}
	}
	if len(results) == 1 {
		r := results[0]
		s.logger.Info("message classified", map[string]interface{}{
			"source":         source,
			"intent":         r.Intent.String(),
			"confidence":     r.Confidence,
			"hasOrderNumber": r.HasOrderNumber(),
			"durationMs":     elapsed.Milliseconds(),
		})
		return
	}
	s.logger.Info("batch classified", map[string]interface{}{
		"source":     source,
		"count":      len(results),
		"durationMs": elapsed.Milliseconds(),
	})
}
