package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edumint-ai/platform/pkg/common/logger"
	"github.com/edumint-ai/platform/pkg/common/models"
	"github.com/edumint-ai/platform/pkg/observability/metrics"
	"github.com/edumint-ai/platform/pkg/safety"
	"github.com/google/uuid"
)

const (
	RoleEducator  = "educator"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

var (
	ErrForbidden         = errors.New("insufficient role for this transition")
	ErrNotOwner          = errors.New("content belongs to another user")
	ErrInvalidDecision   = errors.New("decision must be approved or declined")
	ErrInvalidTransition = errors.New("invalid approval status transition")
)

// ContentStore is the persistence surface the state machine needs. The gorm
// repository implements it; tests substitute an in-memory fake.
type ContentStore interface {
	GetContent(ctx context.Context, id uuid.UUID) (models.GenerationAttempt, error)
	MarkPending(ctx context.Context, id uuid.UUID, askedAt time.Time) error
	RecordDecision(ctx context.Context, id uuid.UUID, status models.ApprovalStatus, moderatorID uuid.UUID, notes string, decidedAt time.Time) error
	ListPending(ctx context.Context, orgID uuid.UUID, limit int) ([]models.GenerationAttempt, error)
	GetArtifact(ctx context.Context, id uuid.UUID) (models.GeneratedArtifact, error)
}

// Directory resolves users for notification targeting.
type Directory interface {
	FirstModerator(ctx context.Context, orgID uuid.UUID) (models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (models.User, error)
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

// Redactor masks personal data before an input excerpt leaves the service.
// The safety pattern screen implements it.
type Redactor interface {
	Redact(text string) string
}

const excerptMaxRunes = 240

type Service struct {
	store      ContentStore
	directory  Directory
	events     EventPublisher
	appBaseURL string
	redactor   Redactor
	nowFunc    func() time.Time
}

func NewService(store ContentStore, directory Directory, events EventPublisher, appBaseURL string, redactor Redactor) *Service {
	return &Service{
		store:      store,
		directory:  directory,
		events:     events,
		appBaseURL: appBaseURL,
		redactor:   redactor,
		nowFunc:    time.Now,
	}
}

// RequestReview moves content from not_requested to pending. Only the owning
// educator may trigger it. The moderator notification is an outbound event:
// it may fail without rolling back the transition.
func (s *Service) RequestReview(ctx context.Context, user models.User, contentID uuid.UUID) (models.ModerationRecord, error) {
	if user.Role != RoleEducator {
		return models.ModerationRecord{}, ErrForbidden
	}

	content, err := s.store.GetContent(ctx, contentID)
	if err != nil {
		return models.ModerationRecord{}, err
	}
	if content.UserID != user.ID {
		return models.ModerationRecord{}, ErrNotOwner
	}

	switch content.ApprovalStatus {
	case models.ApprovalPending:
		// Repeat requests are idempotent.
		return s.record(content), nil
	case models.ApprovalApproved, models.ApprovalDeclined:
		return models.ModerationRecord{}, ErrInvalidTransition
	}

	now := s.nowFunc().UTC()
	if err := s.store.MarkPending(ctx, contentID, now); err != nil {
		return models.ModerationRecord{}, err
	}
	content.ApprovalStatus = models.ApprovalPending
	content.ReviewAskedAt = &now

	metrics.IncModerationRequested()
	s.notifyModerator(ctx, user, content)
	return s.record(content), nil
}

// Decide records a moderator decision. Valid from pending, and from a prior
// decision (re-decision overwrites; only the ledger keeps history).
func (s *Service) Decide(ctx context.Context, user models.User, contentID uuid.UUID, req models.DecideModerationRequest) (models.ModerationRecord, error) {
	if user.Role != RoleModerator && user.Role != RoleAdmin {
		return models.ModerationRecord{}, ErrForbidden
	}

	decision := models.ApprovalStatus(req.Decision)
	if decision != models.ApprovalApproved && decision != models.ApprovalDeclined {
		return models.ModerationRecord{}, ErrInvalidDecision
	}

	content, err := s.store.GetContent(ctx, contentID)
	if err != nil {
		return models.ModerationRecord{}, err
	}
	if content.ApprovalStatus == models.ApprovalNotRequested {
		return models.ModerationRecord{}, ErrInvalidTransition
	}

	now := s.nowFunc().UTC()
	if err := s.store.RecordDecision(ctx, contentID, decision, user.ID, req.Notes, now); err != nil {
		return models.ModerationRecord{}, err
	}
	content.ApprovalStatus = decision
	content.ModeratorID = &user.ID
	content.ModeratorNotes = req.Notes
	content.DecidedAt = &now

	metrics.IncModerationDecided()
	s.notifyRequester(ctx, content)
	return s.record(content), nil
}

// ApprovedContent is the fetch-under-approval result: the artifact plus an
// echo of the original input it was generated from.
type ApprovedContent struct {
	Artifact models.GeneratedArtifact `json:"artifact"`
	Input    string                   `json:"input"`
}

// FetchApproved serves content whose latest status is exactly approved. Any
// other status is reported to the caller with that status, never as a bare
// forbidden. Approved content is served without re-running safety checks.
func (s *Service) FetchApproved(ctx context.Context, user models.User, contentID uuid.UUID) (ApprovedContent, error) {
	content, err := s.store.GetContent(ctx, contentID)
	if err != nil {
		return ApprovedContent{}, err
	}
	if content.UserID != user.ID && user.Role != RoleModerator && user.Role != RoleAdmin {
		return ApprovedContent{}, ErrNotOwner
	}
	if content.ApprovalStatus != models.ApprovalApproved {
		return ApprovedContent{}, &models.NotApprovedError{Status: content.ApprovalStatus}
	}
	if content.PromptID == nil {
		return ApprovedContent{}, ErrArtifactNotFound
	}

	artifact, err := s.store.GetArtifact(ctx, *content.PromptID)
	if err != nil {
		return ApprovedContent{}, err
	}
	return ApprovedContent{Artifact: artifact, Input: artifact.Input}, nil
}

func (s *Service) ListPending(ctx context.Context, user models.User, limit int) ([]models.ModerationRecord, error) {
	if user.Role != RoleModerator && user.Role != RoleAdmin {
		return nil, ErrForbidden
	}
	contents, err := s.store.ListPending(ctx, user.OrganizationID, limit)
	if err != nil {
		return nil, err
	}
	records := make([]models.ModerationRecord, 0, len(contents))
	for _, content := range contents {
		records = append(records, s.record(content))
	}
	return records, nil
}

func (s *Service) notifyModerator(ctx context.Context, requester models.User, content models.GenerationAttempt) {
	if s.events == nil {
		return
	}
	moderator, err := s.directory.FirstModerator(ctx, content.OrganizationID)
	if err != nil {
		logger.Log.WithError(err).WithField("organization_id", content.OrganizationID).Warn("no moderator found for review request")
		return
	}

	if err := s.events.PublishEvent(ctx, "moderation.requested", "moderation-service", map[string]interface{}{
		"content_id":      content.ID.String(),
		"title":           content.Title,
		"violations":      safety.Violations(content.Flags),
		"excerpt":         s.inputExcerpt(ctx, content),
		"requester_name":  requester.Name,
		"requester_email": requester.Email,
		"moderator_email": moderator.Email,
		"approve_url":     fmt.Sprintf("%s/moderation/%s?decision=approved", s.appBaseURL, content.ID),
		"decline_url":     fmt.Sprintf("%s/moderation/%s?decision=declined", s.appBaseURL, content.ID),
	}); err != nil {
		logger.Log.WithError(err).Error("failed to publish moderation request event")
	}
}

// inputExcerpt gives the moderator a short, redacted view of what was fed to
// the generator. The email must never leak personal data the pattern screen
// would have masked.
func (s *Service) inputExcerpt(ctx context.Context, content models.GenerationAttempt) string {
	if content.PromptID == nil {
		return ""
	}
	artifact, err := s.store.GetArtifact(ctx, *content.PromptID)
	if err != nil {
		logger.Log.WithError(err).WithField("content_id", content.ID).Warn("artifact lookup failed for excerpt")
		return ""
	}

	excerpt := artifact.Input
	if s.redactor != nil {
		excerpt = s.redactor.Redact(excerpt)
	}
	runes := []rune(excerpt)
	if len(runes) > excerptMaxRunes {
		excerpt = string(runes[:excerptMaxRunes]) + "…"
	}
	return excerpt
}

func (s *Service) notifyRequester(ctx context.Context, content models.GenerationAttempt) {
	if s.events == nil {
		return
	}
	requester, err := s.directory.GetUser(ctx, content.UserID)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", content.UserID).Warn("requester lookup failed for decision notification")
		return
	}

	if err := s.events.PublishEvent(ctx, "moderation.decided", "moderation-service", map[string]interface{}{
		"content_id":      content.ID.String(),
		"title":           content.Title,
		"status":          string(content.ApprovalStatus),
		"notes":           content.ModeratorNotes,
		"requester_email": requester.Email,
	}); err != nil {
		logger.Log.WithError(err).Error("failed to publish moderation decision event")
	}
}

func (s *Service) record(content models.GenerationAttempt) models.ModerationRecord {
	return models.ModerationRecord{
		ContentID:      content.ID,
		RequesterID:    content.UserID,
		OrganizationID: content.OrganizationID,
		Title:          content.Title,
		Status:         content.ApprovalStatus,
		Violations:     safety.Violations(content.Flags),
		ModeratorID:    content.ModeratorID,
		ModeratorNotes: content.ModeratorNotes,
		ReviewAskedAt:  content.ReviewAskedAt,
		DecidedAt:      content.DecidedAt,
	}
}
