package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pairpad/collab-service/internal/domain"
	"github.com/pairpad/collab-service/pkg/log"
)

// GormProjectRepository implements ProjectRepository using GORM.
type GormProjectRepository struct {
	db *gorm.DB
}

// NewGormProjectRepository creates a new GORM-based project repository.
func NewGormProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create creates a new project.
func (r *GormProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	l := log.Ctx(ctx)

	project.ID = uuid.New().String()

	model := domain.ProjectToModel(project)
	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		l.Error().Err(result.Error).Msg("failed to create project in db")
		return result.Error
	}

	project.CreatedAt = model.CreatedAt
	l.Debug().Str(log.FieldProjectID, project.ID).Msg("project created in db")
	return nil
}

// GetByID retrieves a project by ID.
func (r *GormProjectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	l := log.Ctx(ctx)

	var model domain.ProjectModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		l.Error().Err(result.Error).Str(log.FieldProjectID, id).Msg("failed to get project by id")
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// List retrieves all projects, newest first.
func (r *GormProjectRepository) List(ctx context.Context) ([]domain.Project, error) {
	l := log.Ctx(ctx)

	var models []domain.ProjectModel
	result := r.db.WithContext(ctx).Order("created_at DESC").Find(&models)
	if result.Error != nil {
		l.Error().Err(result.Error).Msg("failed to list projects from db")
		return nil, result.Error
	}

	projects := make([]domain.Project, len(models))
	for i, model := range models {
		projects[i] = *model.ToDomain()
	}
	return projects, nil
}

// GetCode reads the current code buffer.
func (r *GormProjectRepository) GetCode(ctx context.Context, id string) (string, error) {
	l := log.Ctx(ctx)

	var model domain.ProjectModel
	result := r.db.WithContext(ctx).Select("code").First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", ErrProjectNotFound
		}
		l.Error().Err(result.Error).Str(log.FieldProjectID, id).Msg("failed to get project code")
		return "", result.Error
	}
	return model.Code, nil
}

// UpdateCode overwrites the code buffer. A missing project is a silent
// no-op: the realtime channel does not validate project existence.
func (r *GormProjectRepository) UpdateCode(ctx context.Context, id, code string) error {
	l := log.Ctx(ctx)

	result := r.db.WithContext(ctx).Model(&domain.ProjectModel{}).
		Where("id = ?", id).
		Update("code", code)
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldProjectID, id).Msg("failed to update project code")
		return result.Error
	}
	return nil
}
