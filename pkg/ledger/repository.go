package ledger

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

var ErrAttemptNotFound = errors.New("generation attempt not found")

// Repository owns the ai_tools_metrics collection. Attempt rows are insert
// only; the single permitted update path is the moderation field group.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type attemptModel struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey;column:id"`
	UserID         uuid.UUID      `gorm:"type:uuid;column:user_id;index"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;column:organization_id;index"`
	Tool           string         `gorm:"column:tool"`
	Model          string         `gorm:"column:model"`
	InputBytes     int            `gorm:"column:input_bytes"`
	OutputBytes    int            `gorm:"column:output_bytes"`
	InputTokens    int            `gorm:"column:input_tokens"`
	OutputTokens   int            `gorm:"column:output_tokens"`
	TotalTokens    int            `gorm:"column:total_tokens"`
	Price          float64        `gorm:"column:price"`
	Currency       string         `gorm:"column:currency"`
	Flags          datatypes.JSON `gorm:"column:flags"`
	Flagged        bool           `gorm:"column:flagged;index"`
	ErrorType      string         `gorm:"column:error_type"`
	StatusCode     int            `gorm:"column:status_code"`
	PromptID       *uuid.UUID     `gorm:"type:uuid;column:prompt_id"`
	Title          string         `gorm:"column:title"`
	ApprovalStatus string         `gorm:"column:approval_status;index"`
	ModeratorID    *uuid.UUID     `gorm:"type:uuid;column:moderator_id"`
	ModeratorNotes string         `gorm:"column:moderator_notes"`
	ReviewAskedAt  *time.Time     `gorm:"column:review_asked_at"`
	DecidedAt      *time.Time     `gorm:"column:decided_at"`
	CreatedAt      time.Time      `gorm:"column:created_at"`
}

func (attemptModel) TableName() string { return "ai_tools_metrics" }

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&attemptModel{})
}

func (r *Repository) Create(ctx context.Context, attempt models.GenerationAttempt) (models.GenerationAttempt, error) {
	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}
	if attempt.ApprovalStatus == "" {
		attempt.ApprovalStatus = models.ApprovalNotRequested
	}
	attempt.CreatedAt = time.Now().UTC()

	row := &attemptModel{
		ID:             attempt.ID,
		UserID:         attempt.UserID,
		OrganizationID: attempt.OrganizationID,
		Tool:           attempt.Tool,
		Model:          attempt.Model,
		InputBytes:     attempt.InputBytes,
		OutputBytes:    attempt.OutputBytes,
		InputTokens:    attempt.InputTokens,
		OutputTokens:   attempt.OutputTokens,
		TotalTokens:    attempt.TotalTokens,
		Price:          attempt.Price,
		Currency:       attempt.Currency,
		Flagged:        attempt.Flagged,
		ErrorType:      attempt.ErrorType,
		StatusCode:     attempt.StatusCode,
		PromptID:       attempt.PromptID,
		Title:          attempt.Title,
		ApprovalStatus: string(attempt.ApprovalStatus),
		CreatedAt:      attempt.CreatedAt,
	}
	if data, err := json.Marshal(attempt.Flags); err == nil {
		row.Flags = datatypes.JSON(data)
	}

	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return models.GenerationAttempt{}, err
	}
	return attempt, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (models.GenerationAttempt, error) {
	var row attemptModel
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.GenerationAttempt{}, ErrAttemptNotFound
	}
	if err != nil {
		return models.GenerationAttempt{}, err
	}
	return mapAttempt(row), nil
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.GenerationAttempt, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []attemptModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	attempts := make([]models.GenerationAttempt, 0, len(rows))
	for _, row := range rows {
		attempts = append(attempts, mapAttempt(row))
	}
	return attempts, nil
}

func mapAttempt(row attemptModel) models.GenerationAttempt {
	attempt := models.GenerationAttempt{
		ID:             row.ID,
		UserID:         row.UserID,
		OrganizationID: row.OrganizationID,
		Tool:           row.Tool,
		Model:          row.Model,
		InputBytes:     row.InputBytes,
		OutputBytes:    row.OutputBytes,
		InputTokens:    row.InputTokens,
		OutputTokens:   row.OutputTokens,
		TotalTokens:    row.TotalTokens,
		Price:          row.Price,
		Currency:       row.Currency,
		Flagged:        row.Flagged,
		ErrorType:      row.ErrorType,
		StatusCode:     row.StatusCode,
		PromptID:       row.PromptID,
		Title:          row.Title,
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
