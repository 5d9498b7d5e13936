package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pairpad/collab-service/internal/domain"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&domain.ProjectModel{}, &domain.MessageModel{}))
	return db
}

func TestProjectCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProjectRepository(db)
	ctx := context.Background()

	project := &domain.Project{Name: "demo", Description: "a demo project"}
	require.NoError(t, repo.Create(ctx, project))
	require.NotEmpty(t, project.ID)

	got, err := repo.GetByID(ctx, project.ID)
	require.NoError(t, err)
	require.Equal(t, "demo", got.Name)
	require.Equal(t, "a demo project", got.Description)
	require.Empty(t, got.Code)
}

func TestProjectGetByIDNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProjectRepository(db)

	_, err := repo.GetByID(context.Background(), "no-such-project")
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestProjectCodeOverwrite(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProjectRepository(db)
	ctx := context.Background()

	project := &domain.Project{Name: "demo"}
	require.NoError(t, repo.Create(ctx, project))

	cases := []string{
		"print(1)",
		"",
		"line one\nline two\n\tindented",
		"print(1)", // same value written twice
	}
	for _, code := range cases {
		require.NoError(t, repo.UpdateCode(ctx, project.ID, code))

		got, err := repo.GetCode(ctx, project.ID)
		require.NoError(t, err)
		require.Equal(t, code, got)
	}
}

func TestProjectLateReadSeesLastWrite(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProjectRepository(db)
	ctx := context.Background()

	project := &domain.Project{Name: "demo"}
	require.NoError(t, repo.Create(ctx, project))

	for i := 0; i < 10; i++ {
		require.NoError(t, repo.UpdateCode(ctx, project.ID, fmt.Sprintf("revision %d", i)))
	}

	got, err := repo.GetCode(ctx, project.ID)
	require.NoError(t, err)
	require.Equal(t, "revision 9", got)
}

func TestProjectUpdateCodeUnknownProjectIsNoop(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProjectRepository(db)

	require.NoError(t, repo.UpdateCode(context.Background(), "no-such-project", "code"))
}

func TestProjectGetCodeUnknownProject(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProjectRepository(db)

	code, err := repo.GetCode(context.Background(), "no-such-project")
	require.ErrorIs(t, err, ErrProjectNotFound)
	require.Empty(t, code)
}

func TestProjectListNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProjectRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &domain.Project{Name: fmt.Sprintf("p%d", i)}))
	}

	projects, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 3)
}

func TestMessageAppendOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormMessageRepository(db)
	ctx := context.Background()

	texts := []string{"first", "second", "third", "fourth"}
	for _, text := range texts {
		_, err := repo.Append(ctx, "project-1", text)
		require.NoError(t, err)
	}

	messages, err := repo.ListByProject(ctx, "project-1")
	require.NoError(t, err)
	require.Len(t, messages, len(texts))
	for i, m := range messages {
		require.Equal(t, texts[i], m.Text)
	}
}

func TestMessageLogsAreIsolatedByProject(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormMessageRepository(db)
	ctx := context.Background()

	_, err := repo.Append(ctx, "project-1", "hello from p1")
	require.NoError(t, err)
	_, err = repo.Append(ctx, "project-2", "hello from p2")
	require.NoError(t, err)

	messages, err := repo.ListByProject(ctx, "project-1")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Equal(t, "hello from p1", messages[0].Text)
}

func TestMessageListUnknownProjectIsEmpty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormMessageRepository(db)

	messages, err := repo.ListByProject(context.Background(), "no-such-project")
	require.NoError(t, err)
	require.Empty(t, messages)
}
