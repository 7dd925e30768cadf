package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/edumint-ai/platform/pkg/common/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrContentNotFound  = errors.New("content not found")
	ErrArtifactNotFound = errors.New("artifact not found")
)

// Repository is the moderation-service view over the ledger and artifact
// collections. Reads are unrestricted; writes touch only the moderation field
// group of an attempt row.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type contentRow struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey;column:id"`
	UserID         uuid.UUID      `gorm:"type:uuid;column:user_id"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;column:organization_id"`
	Tool           string         `gorm:"column:tool"`
	Title          string         `gorm:"column:title"`
	Flags          datatypes.JSON `gorm:"column:flags"`
	Flagged        bool           `gorm:"column:flagged"`
	PromptID       *uuid.UUID     `gorm:"type:uuid;column:prompt_id"`
	ApprovalStatus string         `gorm:"column:approval_status"`
	ModeratorID    *uuid.UUID     `gorm:"type:uuid;column:moderator_id"`
	ModeratorNotes string         `gorm:"column:moderator_notes"`
	ReviewAskedAt  *time.Time     `gorm:"column:review_asked_at"`
	DecidedAt      *time.Time     `gorm:"column:decided_at"`
	CreatedAt      time.Time      `gorm:"column:created_at"`
}

func (contentRow) TableName() string { return "ai_tools_metrics" }

type artifactRow struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey;column:id"`
	UserID    uuid.UUID      `gorm:"type:uuid;column:user_id"`
	Tool      string         `gorm:"column:tool"`
	Title     string         `gorm:"column:title"`
	Input     string         `gorm:"column:input"`
	Payload   datatypes.JSON `gorm:"column:payload"`
	CreatedAt time.Time      `gorm:"column:created_at"`
}

func (artifactRow) TableName() string { return "generated_artifacts" }

func (r *Repository) GetContent(ctx context.Context, id uuid.UUID) (models.GenerationAttempt, error) {
	var row contentRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.GenerationAttempt{}, ErrContentNotFound
	}
	if err != nil {
		return models.GenerationAttempt{}, err
	}
	return mapContent(row), nil
}

func (r *Repository) MarkPending(ctx context.Context, id uuid.UUID, askedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&contentRow{}).Where("id = ?", id).Updates(map[string]interface{}{
		"approval_status": string(models.ApprovalPending),
		"review_asked_at": askedAt,
	}).Error
}

func (r *Repository) RecordDecision(ctx context.Context, id uuid.UUID, status models.ApprovalStatus, moderatorID uuid.UUID, notes string, decidedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&contentRow{}).Where("id = ?", id).Updates(map[string]interface{}{
		"approval_status": string(status),
		"moderator_id":    moderatorID,
		"moderator_notes": notes,
		"decided_at":      decidedAt,
	}).Error
}

func (r *Repository) ListPending(ctx context.Context, orgID uuid.UUID, limit int) ([]models.GenerationAttempt, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []contentRow
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND approval_status = ?", orgID, string(models.ApprovalPending)).
		Order("review_asked_at ASC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	contents := make([]models.GenerationAttempt, 0, len(rows))
	for _, row := range rows {
		contents = append(contents, mapContent(row))
	}
	return contents, nil
}

func (r *Repository) GetArtifact(ctx context.Context, id uuid.UUID) (models.GeneratedArtifact, error) {
	var row artifactRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.GeneratedArtifact{}, ErrArtifactNotFound
	}
	if err != nil {
		return models.GeneratedArtifact{}, err
	}

	artifact := models.GeneratedArtifact{
		ID:        row.ID,
		UserID:    row.UserID,
		Tool:      row.Tool,
		Title:     row.Title,
		Input:     row.Input,
		CreatedAt: row.CreatedAt,
	}
	if len(row.Payload) > 0 {
		_ = json.Unmarshal(row.Payload, &artifact.Payload)
	}
	return artifact, nil
}

func mapContent(row contentRow) models.GenerationAttempt {
	attempt := models.GenerationAttempt{
		ID:             row.ID,
		UserID:         row.UserID,
		OrganizationID: row.OrganizationID,
		Tool:           row.Tool,
		Title:          row.Title,
		Flagged:        row.Flagged,
		PromptID:       row.PromptID,
		ApprovalStatus: models.ApprovalStatus(row.ApprovalStatus),
		ModeratorID:    row.ModeratorID,
		ModeratorNotes: row.ModeratorNotes,
		ReviewAskedAt:  row.ReviewAskedAt,
		DecidedAt:      row.DecidedAt,
		CreatedAt:      row.CreatedAt,
	}
	if len(row.Flags) > 0 {
		_ = json.Unmarshal(row.Flags, &attempt.Flags)
	}
	return attempt
}
