package moderation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/edumint-ai/platform/pkg/common/models"
	"github.com/edumint-ai/platform/pkg/safety"
	"github.com/google/uuid"
)

type fakeStore struct {
	contents  map[uuid.UUID]models.GenerationAttempt
	artifacts map[uuid.UUID]models.GeneratedArtifact
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		contents:  map[uuid.UUID]models.GenerationAttempt{},
		artifacts: map[uuid.UUID]models.GeneratedArtifact{},
	}
}

func (f *fakeStore) GetContent(ctx context.Context, id uuid.UUID) (models.GenerationAttempt, error) {
	content, ok := f.contents[id]
	if !ok {
		return models.GenerationAttempt{}, ErrContentNotFound
	}
	return content, nil
}

func (f *fakeStore) MarkPending(ctx context.Context, id uuid.UUID, askedAt time.Time) error {
	content := f.contents[id]
	content.ApprovalStatus = models.ApprovalPending
	content.ReviewAskedAt = &askedAt
	f.contents[id] = content
	return nil
}

func (f *fakeStore) RecordDecision(ctx context.Context, id uuid.UUID, status models.ApprovalStatus, moderatorID uuid.UUID, notes string, decidedAt time.Time) error {
	content := f.contents[id]
	content.ApprovalStatus = status
	content.ModeratorID = &moderatorID
	content.ModeratorNotes = notes
	content.DecidedAt = &decidedAt
	f.contents[id] = content
	return nil
}

func (f *fakeStore) ListPending(ctx context.Context, orgID uuid.UUID, limit int) ([]models.GenerationAttempt, error) {
	var pending []models.GenerationAttempt
	for _, content := range f.contents {
		if content.OrganizationID == orgID && content.ApprovalStatus == models.ApprovalPending {
			pending = append(pending, content)
		}
	}
	return pending, nil
}

func (f *fakeStore) GetArtifact(ctx context.Context, id uuid.UUID) (models.GeneratedArtifact, error) {
	artifact, ok := f.artifacts[id]
	if !ok {
		return models.GeneratedArtifact{}, ErrArtifactNotFound
	}
	return artifact, nil
}

type fakeDirectory struct {
	moderator models.User
	users     map[uuid.UUID]models.User
}

func (f *fakeDirectory) FirstModerator(ctx context.Context, orgID uuid.UUID) (models.User, error) {
	return f.moderator, nil
}

func (f *fakeDirectory) GetUser(ctx context.Context, id uuid.UUID) (models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return models.User{}, errors.New("user not found")
	}
	return user, nil
}

type recordingPublisher struct {
	events []string
	data   []map[string]interface{}
}

func (r *recordingPublisher) PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error {
	r.events = append(r.events, eventType)
	r.data = append(r.data, data)
	return nil
}

type fixture struct {
	service   *Service
	store     *fakeStore
	publisher *recordingPublisher
	educator  models.User
	moderator models.User
	contentID uuid.UUID
}

func newFixture(t *testing.T, status models.ApprovalStatus) *fixture {
	t.Helper()

	orgID := uuid.New()
	educator := models.User{ID: uuid.New(), OrganizationID: orgID, Role: RoleEducator, Email: "teacher@school.edu", Name: "Pat"}
	moderator := models.User{ID: uuid.New(), OrganizationID: orgID, Role: RoleModerator, Email: "mod@school.edu"}

	store := newFakeStore()
	artifactID := uuid.New()
	store.artifacts[artifactID] = models.GeneratedArtifact{ID: artifactID, UserID: educator.ID, Input: "fractions quiz input"}

	contentID := uuid.New()
	store.contents[contentID] = models.GenerationAttempt{
		ID:             contentID,
		UserID:         educator.ID,
		OrganizationID: orgID,
		Title:          "Fractions quiz",
		ApprovalStatus: status,
		PromptID:       &artifactID,
	}

	directory := &fakeDirectory{
		moderator: moderator,
		users:     map[uuid.UUID]models.User{educator.ID: educator, moderator.ID: moderator},
	}
	publisher := &recordingPublisher{}
	redactor, err := safety.NewPatternScreen(safety.DefaultPatterns())
	if err != nil {
		t.Fatalf("failed to build redactor: %v", err)
	}
	service := NewService(store, directory, publisher, "http://localhost:3000", redactor)
	service.nowFunc = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }

	return &fixture{
		service:   service,
		store:     store,
		publisher: publisher,
		educator:  educator,
		moderator: moderator,
		contentID: contentID,
	}
}

func TestRequestReviewMovesToPending(t *testing.T) {
	f := newFixture(t, models.ApprovalNotRequested)

	record, err := f.service.RequestReview(context.Background(), f.educator, f.contentID)
	if err != nil {
		t.Fatalf("request review failed: %v", err)
	}
	if record.Status != models.ApprovalPending {
		t.Fatalf("expected pending, got %s", record.Status)
	}
	if record.ReviewAskedAt == nil {
		t.Fatal("expected review timestamp to be set")
	}
	if len(f.publisher.events) != 1 || f.publisher.events[0] != "moderation.requested" {
		t.Fatalf("expected a moderation.requested event, got %v", f.publisher.events)
	}
}

func TestRequestReviewEventCarriesRedactedExcerpt(t *testing.T) {
	f := newFixture(t, models.ApprovalNotRequested)
	content := f.store.contents[f.contentID]
	f.store.artifacts[*content.PromptID] = models.GeneratedArtifact{
		ID:     *content.PromptID,
		UserID: f.educator.ID,
		Input:  "quiz about student records, contact jane.doe@school.edu for details",
	}

	if _, err := f.service.RequestReview(context.Background(), f.educator, f.contentID); err != nil {
		t.Fatalf("request review failed: %v", err)
	}

	if len(f.publisher.data) != 1 {
		t.Fatalf("expected one event payload, got %d", len(f.publisher.data))
	}
	excerpt, _ := f.publisher.data[0]["excerpt"].(string)
	if !strings.Contains(excerpt, "student records") {
		t.Fatalf("expected the input excerpt in the event, got %q", excerpt)
	}
	if strings.Contains(excerpt, "jane.doe@school.edu") {
		t.Fatalf("email address must be masked in the excerpt, got %q", excerpt)
	}
	if !strings.Contains(excerpt, "***@***") {
		t.Fatalf("expected the mask in the excerpt, got %q", excerpt)
	}
}

func TestRequestReviewIsIdempotentWhilePending(t *testing.T) {
	f := newFixture(t, models.ApprovalPending)

	record, err := f.service.RequestReview(context.Background(), f.educator, f.contentID)
	if err != nil {
		t.Fatalf("repeat request failed: %v", err)
	}
	if record.Status != models.ApprovalPending {
		t.Fatalf("expected pending, got %s", record.Status)
	}
	if len(f.publisher.events) != 0 {
		t.Fatalf("repeat request must not notify again, got %v", f.publisher.events)
	}
}

func TestRequestReviewRoleAndOwnership(t *testing.T) {
	f := newFixture(t, models.ApprovalNotRequested)

	if _, err := f.service.RequestReview(context.Background(), f.moderator, f.contentID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for moderator, got %v", err)
	}

	other := models.User{ID: uuid.New(), OrganizationID: f.educator.OrganizationID, Role: RoleEducator}
	if _, err := f.service.RequestReview(context.Background(), other, f.contentID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner for non-owning educator, got %v", err)
	}
}

func TestRequestReviewAfterDecisionRejected(t *testing.T) {
	for _, status := range []models.ApprovalStatus{models.ApprovalApproved, models.ApprovalDeclined} {
		f := newFixture(t, status)
		if _, err := f.service.RequestReview(context.Background(), f.educator, f.contentID); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition from %s, got %v", status, err)
		}
	}
}

func TestDecideApproves(t *testing.T) {
	f := newFixture(t, models.ApprovalPending)

	record, err := f.service.Decide(context.Background(), f.moderator, f.contentID, models.DecideModerationRequest{Decision: "approved", Notes: "looks good"})
	if err != nil {
		t.Fatalf("decide failed: %v", err)
	}
	if record.Status != models.ApprovalApproved {
		t.Fatalf("expected approved, got %s", record.Status)
	}
	if record.ModeratorID == nil || *record.ModeratorID != f.moderator.ID {
		t.Fatal("expected moderator id on the record")
	}
	if len(f.publisher.events) != 1 || f.publisher.events[0] != "moderation.decided" {
		t.Fatalf("expected a moderation.decided event, got %v", f.publisher.events)
	}
}

func TestDecideRejectsEducatorAndBadDecision(t *testing.T) {
	f := newFixture(t, models.ApprovalPending)

	if _, err := f.service.Decide(context.Background(), f.educator, f.contentID, models.DecideModerationRequest{Decision: "approved"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for educator, got %v", err)
	}
	if _, err := f.service.Decide(context.Background(), f.moderator, f.contentID, models.DecideModerationRequest{Decision: "maybe"}); !errors.Is(err, ErrInvalidDecision) {
		t.Fatalf("expected ErrInvalidDecision, got %v", err)
	}
}

func TestDecideBeforeRequestRejected(t *testing.T) {
	f := newFixture(t, models.ApprovalNotRequested)
	if _, err := f.service.Decide(context.Background(), f.moderator, f.contentID, models.DecideModerationRequest{Decision: "approved"}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestDecideOverwritesPriorDecision(t *testing.T) {
	f := newFixture(t, models.ApprovalApproved)

	record, err := f.service.Decide(context.Background(), f.moderator, f.contentID, models.DecideModerationRequest{Decision: "declined", Notes: "on second look"})
	if err != nil {
		t.Fatalf("re-decision failed: %v", err)
	}
	if record.Status != models.ApprovalDeclined {
		t.Fatalf("expected declined, got %s", record.Status)
	}
}

func TestFetchApprovedDisclosesStatus(t *testing.T) {
	for _, status := range []models.ApprovalStatus{models.ApprovalNotRequested, models.ApprovalPending, models.ApprovalDeclined} {
		f := newFixture(t, status)
		_, err := f.service.FetchApproved(context.Background(), f.educator, f.contentID)
		var notApproved *models.NotApprovedError
		if !errors.As(err, &notApproved) {
			t.Fatalf("expected NotApprovedError for %s, got %v", status, err)
		}
		if notApproved.Status != status {
			t.Fatalf("expected disclosed status %s, got %s", status, notApproved.Status)
		}
	}
}

func TestFetchApprovedReturnsArtifact(t *testing.T) {
	f := newFixture(t, models.ApprovalApproved)

	content, err := f.service.FetchApproved(context.Background(), f.educator, f.contentID)
	if err != nil {
		t.Fatalf("fetch approved failed: %v", err)
	}
	if content.Input != "fractions quiz input" {
		t.Fatalf("expected the original input, got %q", content.Input)
	}

	// moderators may fetch content they do not own
	if _, err := f.service.FetchApproved(context.Background(), f.moderator, f.contentID); err != nil {
		t.Fatalf("moderator fetch failed: %v", err)
	}

	stranger := models.User{ID: uuid.New(), OrganizationID: f.educator.OrganizationID, Role: RoleEducator}
	if _, err := f.service.FetchApproved(context.Background(), stranger, f.contentID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner for stranger, got %v", err)
	}
}

func TestListPendingRoleGate(t *testing.T) {
	f := newFixture(t, models.ApprovalPending)

	records, err := f.service.ListPending(context.Background(), f.moderator, 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one pending record, got %d", len(records))
	}

	if _, err := f.service.ListPending(context.Background(), f.educator, 10); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for educator, got %v", err)
	}
}
