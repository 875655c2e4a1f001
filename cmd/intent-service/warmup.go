package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"intent-service/internal/common/logger"
	"intent-service/internal/intent"

	"github.com/sethvargo/go-retry"
)

// buildIndex embeds the reference set, retrying while the embedding backend
// is unreachable. An invalid reference set fails immediately.
func buildIndex(ctx context.Context, emb intent.Embedder, refs intent.ReferenceSet, retries int, base time.Duration, log logger.Logger) (*intent.ReferenceIndex, error) {
	backoff := retry.NewExponential(base)
	backoff = retry.WithCappedDuration(30*time.Second, backoff)
	backoff = retry.WithMaxRetries(uint64(retries), backoff)

	var (
		idx      *intent.ReferenceIndex
		attempts int
	)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		var err error
		idx, err = intent.NewReferenceIndex(ctx, emb, refs)
		if err == nil {
			return nil
		}
		if errors.Is(err, intent.ErrModelUnavailable) {
			log.Warn("reference index build failed, retrying", map[string]interface{}{
				"attempt": attempts,
				"error":   err.Error(),
			})
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("build reference index after %d attempts: %w", attempts, err)
	}
	return idx, nil
}

func loadReferences(path string) (intent.ReferenceSet, error) {
	if path == "" {
		return intent.DefaultReferences(), nil
	}
	return intent.LoadReferences(path)
}
