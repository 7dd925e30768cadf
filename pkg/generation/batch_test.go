package generation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/edumint-ai/platform/pkg/common/models"
)

func uniqueProducer(calls *int) BatchProducer {
	counter := 0
	return func(ctx context.Context, n int) ([]models.CandidateItem, error) {
		*calls++
		items := make([]models.CandidateItem, 0, n)
		for i := 0; i < n; i++ {
			counter++
			items = append(items, models.CandidateItem{Text: fmt.Sprintf("unique question number %d about topic", counter)})
		}
		return items, nil
	}
}

func TestGenerateBatchedReachesTarget(t *testing.T) {
	calls := 0
	items, err := GenerateBatched(context.Background(), 12, 5, uniqueProducer(&calls), DefaultSimilarity)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(items) != 12 {
		t.Fatalf("expected 12 items, got %d", len(items))
	}
	// ceil(12/5) = 3 initial batches of 5 already cover the target
	if calls != 3 {
		t.Fatalf("expected 3 producer calls, got %d", calls)
	}
}

func TestGenerateBatchedDeduplicates(t *testing.T) {
	texts := [][]string{
		{"what is photosynthesis", "what is photosynthesis", "name the powerhouse of the cell"},
		{"What is photosynthesis?", "how do plants store energy"},
		{"describe the role of chlorophyll"},
	}
	call := 0
	producer := func(ctx context.Context, n int) ([]models.CandidateItem, error) {
		if call >= len(texts) {
			return nil, nil
		}
		batch := texts[call]
		call++
		items := make([]models.CandidateItem, 0, len(batch))
		for _, text := range batch {
			items = append(items, models.CandidateItem{Text: text})
		}
		return items, nil
	}

	items, err := GenerateBatched(context.Background(), 4, 3, producer, DefaultSimilarity)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("expected 4 unique items, got %d", len(items))
	}
	for i, a := range items {
		for _, b := range items[i+1:] {
			if DefaultSimilarity(a.Text, b.Text) {
				t.Fatalf("kept near-duplicates: %q and %q", a.Text, b.Text)
			}
		}
	}
}

func TestGenerateBatchedKeepsDistinctNonLatinItems(t *testing.T) {
	texts := []string{
		"Что такое фотосинтез?",
		"Назовите столицу Франции",
		"Сколько планет в Солнечной системе?",
	}
	served := 0
	producer := func(ctx context.Context, n int) ([]models.CandidateItem, error) {
		items := make([]models.CandidateItem, 0, n)
		for i := 0; i < n && served < len(texts); i++ {
			items = append(items, models.CandidateItem{Text: texts[served]})
			served++
		}
		return items, nil
	}

	items, err := GenerateBatched(context.Background(), 3, 3, producer, DefaultSimilarity)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected all 3 distinct questions kept, got %d", len(items))
	}
}

func TestGenerateBatchedStopsOnDuplicateOnlyProducer(t *testing.T) {
	calls := 0
	producer := func(ctx context.Context, n int) ([]models.CandidateItem, error) {
		calls++
		return []models.CandidateItem{{Text: "the same question every time"}}, nil
	}

	items, err := GenerateBatched(context.Background(), 5, 2, producer, DefaultSimilarity)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	// ceil(5/2) = 3 initial batches plus exactly one empty backfill
	if calls != 4 {
		t.Fatalf("expected 4 producer calls, got %d", calls)
	}
}

func TestGenerateBatchedNeverExceedsTarget(t *testing.T) {
	producer := func(ctx context.Context, n int) ([]models.CandidateItem, error) {
		items := make([]models.CandidateItem, 0, n+3)
		for i := 0; i < n+3; i++ {
			items = append(items, models.CandidateItem{Text: fmt.Sprintf("over-delivered item %d %d", len(items), n)})
		}
		return items, nil
	}

	items, err := GenerateBatched(context.Background(), 7, 7, producer, func(a, b string) bool { return a == b })
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(items) != 7 {
		t.Fatalf("expected exactly 7 items, got %d", len(items))
	}
}

func TestGenerateBatchedAllBatchesFail(t *testing.T) {
	producerErr := errors.New("model unavailable")
	producer := func(ctx context.Context, n int) ([]models.CandidateItem, error) {
		return nil, producerErr
	}

	if _, err := GenerateBatched(context.Background(), 5, 5, producer, DefaultSimilarity); !errors.Is(err, producerErr) {
		t.Fatalf("expected producer error, got %v", err)
	}
}

func TestGenerateBatchedPartialFailureKeepsItems(t *testing.T) {
	call := 0
	producer := func(ctx context.Context, n int) ([]models.CandidateItem, error) {
		call++
		if call > 1 {
			return nil, errors.New("model unavailable")
		}
		return []models.CandidateItem{{Text: "the one question that made it"}}, nil
	}

	items, err := GenerateBatched(context.Background(), 6, 3, producer, DefaultSimilarity)
	if err != nil {
		t.Fatalf("expected partial result without error, got %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
}

func TestGenerateBatchedRejectsInvalidArguments(t *testing.T) {
	producer := uniqueProducer(new(int))
	if _, err := GenerateBatched(context.Background(), 0, 5, producer, nil); !errors.Is(err, ErrInvalidTargetCount) {
		t.Fatalf("expected ErrInvalidTargetCount, got %v", err)
	}
	if _, err := GenerateBatched(context.Background(), 5, 0, producer, nil); !errors.Is(err, ErrInvalidBatchSize) {
		t.Fatalf("expected ErrInvalidBatchSize, got %v", err)
	}
}
