package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/edumint-ai/platform/pkg/common/logger"
	"github.com/edumint-ai/platform/pkg/common/models"
	"github.com/edumint-ai/platform/pkg/llm"
	"github.com/edumint-ai/platform/pkg/observability/metrics"
	"github.com/edumint-ai/platform/pkg/pricing"
	"github.com/edumint-ai/platform/pkg/safety"
	"github.com/google/uuid"
)

var (
	// ErrContentBlocked marks a policy violation. The response alongside it
	// carries the persisted attempt and the aggregated violation message.
	ErrContentBlocked = errors.New("content policy violation")

	ErrGenerationFailed = errors.New("generation failed")
	ErrNotOwner         = errors.New("content belongs to another user")
)

// EventPublisher decouples the pipeline from the Kafka producer so tests can
// substitute a recorder.
type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

// ArtifactStore and AttemptStore are the persistence surfaces the pipeline
// needs. The gorm repositories implement them; tests substitute in-memory
// fakes.
type ArtifactStore interface {
	Create(ctx context.Context, artifact models.GeneratedArtifact) (models.GeneratedArtifact, error)
	GetByID(ctx context.Context, id uuid.UUID) (models.GeneratedArtifact, error)
}

type AttemptStore interface {
	Create(ctx context.Context, attempt models.GenerationAttempt) (models.GenerationAttempt, error)
	GetByID(ctx context.Context, id uuid.UUID) (models.GenerationAttempt, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.GenerationAttempt, error)
}

type Service struct {
	checker   *safety.Orchestrator
	client    llm.Client
	artifacts ArtifactStore
	attempts  AttemptStore
	pricing   *pricing.Service
	events    EventPublisher
	validator *Validator
	batchSize int
}

type ServiceOptions struct {
	Checker   *safety.Orchestrator
	Client    llm.Client
	Artifacts ArtifactStore
	Attempts  AttemptStore
	Pricing   *pricing.Service
	Events    EventPublisher
	Validator *Validator
	BatchSize int
}

func NewService(opts ServiceOptions) *Service {
	validator := opts.Validator
	if validator == nil {
		validator = NewValidator(DefaultTools(), 50)
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 5
	}
	return &Service{
		checker:   opts.Checker,
		client:    opts.Client,
		artifacts: opts.Artifacts,
		attempts:  opts.Attempts,
		pricing:   opts.Pricing,
		events:    opts.Events,
		validator: validator,
		batchSize: batchSize,
	}
}

// Generate runs the full pipeline: validation, safety evaluation, batched
// generation, artifact persistence, and the ledger record. Every attempt is
// recorded, blocked ones included, so moderation has something to act on.
func (s *Service) Generate(ctx context.Context, user models.User, req models.GenerateRequest) (models.GenerateResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return models.GenerateResponse{}, err
	}

	req.Tool = strings.TrimSpace(strings.ToLower(req.Tool))
	input := composeInput(req)

	surface := safety.SurfaceTool
	if req.ChatSurface {
		surface = safety.SurfaceChat
	}

	result, err := s.checker.Evaluate(ctx, input, surface)
	if err != nil {
		return models.GenerateResponse{}, ValidationError{reason: err}
	}

	if !result.ShouldProceed {
		return s.recordBlocked(ctx, user, req, input, result)
	}

	return s.produce(ctx, user, req, input, result.Flags, false)
}

// Regenerate re-runs generation for content that already cleared human review.
// The safety orchestrator is deliberately skipped: approval is the trust
// boundary, and the original flags are carried onto the new ledger row.
func (s *Service) Regenerate(ctx context.Context, user models.User, contentID uuid.UUID) (models.GenerateResponse, error) {
	attempt, err := s.attempts.GetByID(ctx, contentID)
	if err != nil {
		return models.GenerateResponse{}, err
	}
	if attempt.UserID != user.ID {
		return models.GenerateResponse{}, ErrNotOwner
	}
	if attempt.ApprovalStatus != models.ApprovalApproved {
		return models.GenerateResponse{}, &models.NotApprovedError{Status: attempt.ApprovalStatus}
	}
	if attempt.PromptID == nil {
		return models.GenerateResponse{}, ErrArtifactNotFound
	}

	original, err := s.artifacts.GetByID(ctx, *attempt.PromptID)
	if err != nil {
		return models.GenerateResponse{}, err
	}

	req := models.GenerateRequest{
		Tool:  original.Tool,
		Title: original.Title,
		Topic: original.Input,
	}
	return s.produce(ctx, user, req, original.Input, attempt.Flags, true)
}

func (s *Service) GetArtifact(ctx context.Context, id uuid.UUID) (models.GeneratedArtifact, error) {
	return s.artifacts.GetByID(ctx, id)
}

func (s *Service) ListAttempts(ctx context.Context, userID uuid.UUID, limit int) ([]models.GenerationAttempt, error) {
	return s.attempts.ListByUser(ctx, userID, limit)
}

func (s *Service) recordBlocked(ctx context.Context, user models.User, req models.GenerateRequest, input string, result models.SafetyResult) (models.GenerateResponse, error) {
	// A placeholder artifact keeps the original input around so the content
	// can be reviewed and, if approved, regenerated from the same inputs.
	placeholder, err := s.artifacts.Create(ctx, models.GeneratedArtifact{
		UserID: user.ID,
		Tool:   req.Tool,
		Title:  req.Title,
		Input:  input,
	})
	if err != nil {
		return models.GenerateResponse{}, err
	}

	attempt, err := s.attempts.Create(ctx, models.GenerationAttempt{
		UserID:         user.ID,
		OrganizationID: user.OrganizationID,
		Tool:           req.Tool,
		Model:          s.client.Model(),
		InputBytes:     len(input),
		Flags:          result.Flags,
		Flagged:        true,
		ErrorType:      "content_policy_violation",
		StatusCode:     400,
		PromptID:       &placeholder.ID,
		Title:          req.Title,
		ApprovalStatus: models.ApprovalNotRequested,
	})
	if err != nil {
		return models.GenerateResponse{}, err
	}

	metrics.IncGenerationBlocked()
	message := "content blocked: " + strings.Join(result.Violations, ", ")
	return models.GenerateResponse{Attempt: attempt, Message: message}, ErrContentBlocked
}

func (s *Service) produce(ctx context.Context, user models.User, req models.GenerateRequest, input string, flags models.ContentFlags, approved bool) (models.GenerateResponse, error) {
	var usage llm.Usage
	payload, outputBytes, err := s.runTool(ctx, req, &usage)
	if err != nil {
		s.recordFailure(ctx, user, req, input, flags, usage)
		metrics.IncGenerationFailed()
		return models.GenerateResponse{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	artifact, err := s.artifacts.Create(ctx, models.GeneratedArtifact{
		UserID:  user.ID,
		Tool:    req.Tool,
		Title:   req.Title,
		Input:   input,
		Payload: payload,
	})
	if err != nil {
		return models.GenerateResponse{}, err
	}

	price, currency := s.pricing.Price(ctx, usage.InputTokens, usage.OutputTokens, s.client.Model())

	status := models.ApprovalNotRequested
	flagged := false
	if approved {
		// Regeneration under an approved record keeps the audit trail honest:
		// the original flags and flagged bit stay on the new row.
		status = models.ApprovalApproved
		flagged = flags != (models.ContentFlags{})
	}

	attempt, err := s.attempts.Create(ctx, models.GenerationAttempt{
		UserID:         user.ID,
		OrganizationID: user.OrganizationID,
		Tool:           req.Tool,
		Model:          s.client.Model(),
		InputBytes:     len(input),
		OutputBytes:    outputBytes,
		InputTokens:    usage.InputTokens,
		OutputTokens:   usage.OutputTokens,
		TotalTokens:    usage.TotalTokens,
		Price:          price,
		Currency:       currency,
		Flags:          flags,
		Flagged:        flagged,
		StatusCode:     200,
		PromptID:       &artifact.ID,
		Title:          req.Title,
		ApprovalStatus: status,
	})
	if err != nil {
		return models.GenerateResponse{}, err
	}

	if s.events != nil {
		if err := s.events.PublishEvent(ctx, "generation.completed", "content-service", map[string]interface{}{
			"attempt_id":  attempt.ID.String(),
			"artifact_id": artifact.ID.String(),
			"tool":        req.Tool,
			"user_id":     user.ID.String(),
		}); err != nil {
			logger.Log.WithError(err).Warn("failed to publish generation event")
		}
	}

	metrics.IncGenerationAccepted()
	return models.GenerateResponse{Artifact: &artifact, Attempt: attempt}, nil
}

// runTool dispatches to the batched item generator or the single-document
// generator and returns the artifact payload plus its serialized size.
func (s *Service) runTool(ctx context.Context, req models.GenerateRequest, usage *llm.Usage) (map[string]interface{}, int, error) {
	if itemTool(req.Tool) {
		target := req.ItemCount
		if target <= 0 {
			target = 5
		}

		producer := func(ctx context.Context, n int) ([]models.CandidateItem, error) {
			raw, u, err := s.client.ChatComplete(ctx, systemPromptFor(req.Tool), itemsPrompt(req.Topic, req.Instructions, n), llm.FormatJSON)
			usage.InputTokens += u.InputTokens
			usage.OutputTokens += u.OutputTokens
			usage.TotalTokens += u.TotalTokens
			if err != nil {
				return nil, err
			}
			return parseItems(raw)
		}

		items, err := GenerateBatched(ctx, target, s.batchSize, producer, DefaultSimilarity)
		if err != nil {
			return nil, 0, err
		}
		outputBytes := 0
		for _, item := range items {
			outputBytes += len(item.Text)
		}
		return map[string]interface{}{"questions": items}, outputBytes, nil
	}

	raw, u, err := s.client.ChatComplete(ctx, systemPromptFor(req.Tool), documentPrompt(req.Tool, req.Topic, req.Instructions), llm.FormatJSON)
	usage.InputTokens += u.InputTokens
	usage.OutputTokens += u.OutputTokens
	usage.TotalTokens += u.TotalTokens
	if err != nil {
		return nil, 0, err
	}
	payload, err := parseDocument(raw)
	if err != nil {
		return nil, 0, err
	}
	return payload, len(raw), nil
}

func (s *Service) recordFailure(ctx context.Context, user models.User, req models.GenerateRequest, input string, flags models.ContentFlags, usage llm.Usage) {
	if _, err := s.attempts.Create(ctx, models.GenerationAttempt{
		UserID:         user.ID,
		OrganizationID: user.OrganizationID,
		Tool:           req.Tool,
		Model:          s.client.Model(),
		InputBytes:     len(input),
		InputTokens:    usage.InputTokens,
		OutputTokens:   usage.OutputTokens,
		TotalTokens:    usage.TotalTokens,
		Flags:          flags,
		ErrorType:      "generation_failure",
		StatusCode:     500,
		Title:          req.Title,
		ApprovalStatus: models.ApprovalNotRequested,
	}); err != nil {
		logger.Log.WithError(err).Error("failed to record failed generation attempt")
	}
}

func composeInput(req models.GenerateRequest) string {
	input := strings.TrimSpace(req.Topic)
	if instructions := strings.TrimSpace(req.Instructions); instructions != "" {
		input += "\n" + instructions
	}
	return input
}
