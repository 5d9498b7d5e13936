package repository

import (
	"context"
	"errors"

	"github.com/pairpad/collab-service/internal/domain"
)

var ErrProjectNotFound = errors.New("project not found")

// ProjectRepository persists projects and their shared code buffer.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context) ([]domain.Project, error)
	// GetCode reads the current code buffer for a project.
	GetCode(ctx context.Context, id string) (string, error)
	// UpdateCode overwrites the code buffer. Concurrent writers resolve
	// last-write-wins in store arrival order. Updating a project that does
	// not exist is a no-op.
	UpdateCode(ctx context.Context, id, code string) error
}

// MessageRepository is the append-only chat log, ordered by insertion.
type MessageRepository interface {
	Append(ctx context.Context, projectID, text string) (*domain.ChatMessage, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.ChatMessage, error)
}
