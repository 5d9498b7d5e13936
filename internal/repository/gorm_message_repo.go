package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/pairpad/collab-service/internal/domain"
	"github.com/pairpad/collab-service/pkg/log"
)

// GormMessageRepository implements MessageRepository using GORM.
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GORM-based message repository.
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Append inserts a chat message at the tail of the project's log.
func (r *GormMessageRepository) Append(ctx context.Context, projectID, text string) (*domain.ChatMessage, error) {
	l := log.Ctx(ctx)

	model := domain.MessageModel{
		ProjectID: projectID,
		Text:      text,
	}
	result := r.db.WithContext(ctx).Create(&model)
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldProjectID, projectID).Msg("failed to append chat message")
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// ListByProject returns the project's chat log in append order. An unknown
// project yields an empty log, not an error.
func (r *GormMessageRepository) ListByProject(ctx context.Context, projectID string) ([]domain.ChatMessage, error) {
	l := log.Ctx(ctx)

	var models []domain.MessageModel
	result := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("id ASC").
		Find(&models)
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldProjectID, projectID).Msg("failed to list chat messages")
		return nil, result.Error
	}

	messages := make([]domain.ChatMessage, len(models))
	for i, model := range models {
		messages[i] = *model.ToDomain()
	}
	return messages, nil
}
