package generation

import (
	"context"
	"errors"
	"fmt"

	"github.com/edumint-ai/platform/pkg/common/logger"
	"github.com/edumint-ai/platform/pkg/common/models"
)

var (
	ErrInvalidTargetCount = errors.New("target count must be at least 1")
	ErrInvalidBatchSize   = errors.New("batch size must be at least 1")
)

// BatchProducer yields up to n candidate items. Producers are expected to be
// unreliable (an LLM call); an error is treated by the loop as an empty batch.
type BatchProducer func(ctx context.Context, n int) ([]models.CandidateItem, error)

// GenerateBatched produces up to targetCount semantically distinct items.
// Initial batches cover the target, then deficit-sized backfill batches top up
// losses from deduplication. Batches are issued serially: each backfill is
// sized from the deficit left by the previous ones.
//
// The loop terminates as soon as a backfill batch contributes zero new unique
// items, so a producer stuck on duplicates returns a short result instead of
// spinning. The result may therefore hold fewer than targetCount items.
func GenerateBatched(ctx context.Context, targetCount, batchSize int, producer BatchProducer, similar SimilarityFn) ([]models.CandidateItem, error) {
	if targetCount < 1 {
		return nil, ErrInvalidTargetCount
	}
	if batchSize < 1 {
		return nil, ErrInvalidBatchSize
	}
	if similar == nil {
		similar = DefaultSimilarity
	}

	var kept []models.CandidateItem
	var lastErr error

	absorb := func(items []models.CandidateItem) int {
		added := 0
		for _, item := range items {
			duplicate := false
			for _, existing := range kept {
				if similar(item.Text, existing.Text) {
					duplicate = true
					break
				}
			}
			if !duplicate {
				kept = append(kept, item)
				added++
			}
		}
		return added
	}

	runBatch := func(n int) int {
		items, err := producer(ctx, n)
		if err != nil {
			lastErr = err
			logger.Log.WithError(err).Warn("batch producer failed, treating as empty batch")
			return 0
		}
		return absorb(items)
	}

	initialBatches := (targetCount + batchSize - 1) / batchSize
	for i := 0; i < initialBatches; i++ {
		runBatch(batchSize)
	}

	for len(kept) < targetCount {
		deficit := targetCount - len(kept)
		if runBatch(deficit) == 0 {
			break
		}
	}

	if len(kept) == 0 && lastErr != nil {
		return nil, fmt.Errorf("generation produced no items: %w", lastErr)
	}
	if len(kept) > targetCount {
		kept = kept[:targetCount]
	}
	return kept, nil
}
