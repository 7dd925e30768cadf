package generation

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

var ErrArtifactNotFound = errors.New("artifact not found")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type artifactModel struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey;column:id"`
	UserID    uuid.UUID      `gorm:"type:uuid;column:user_id;index"`
	Tool      string         `gorm:"column:tool"`
	Title     string         `gorm:"column:title"`
	Input     string         `gorm:"column:input"`
	Payload   datatypes.JSON `gorm:"column:payload"`
	CreatedAt time.Time      `gorm:"column:created_at"`
}

func (artifactModel) TableName() string { return "generated_artifacts" }

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&artifactModel{})
}

func (r *Repository) Create(ctx context.Context, artifact models.GeneratedArtifact) (models.GeneratedArtifact, error) {
	if artifact.ID == uuid.Nil {
		artifact.ID = uuid.New()
	}
	artifact.CreatedAt = time.Now().UTC()

	row := &artifactModel{
		ID:        artifact.ID,
		UserID:    artifact.UserID,
		Tool:      artifact.Tool,
		Title:     artifact.Title,
		Input:     artifact.Input,
		CreatedAt: artifact.CreatedAt,
	}
	if artifact.Payload != nil {
		if data, err := json.Marshal(artifact.Payload); err == nil {
			row.Payload = datatypes.JSON(data)
		}
	}

	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return models.GeneratedArtifact{}, err
	}
	return artifact, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (models.GeneratedArtifact, error) {
	var row artifactModel
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
