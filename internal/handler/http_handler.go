package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/pairpad/collab-service/internal/domain"
	"github.com/pairpad/collab-service/internal/repository"
	"github.com/pairpad/collab-service/pkg/log"
	"github.com/pairpad/collab-service/pkg/response"
)

// HTTPHandler serves the project CRUD surface.
type HTTPHandler struct {
	projects repository.ProjectRepository
}

func NewHTTPHandler(projects repository.ProjectRepository) *HTTPHandler {
	return &HTTPHandler{projects: projects}
}

// RegisterRoutes registers all HTTP routes.
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	projects := r.Group("/projects")
	{
		projects.GET("/get-all", h.GetAllProjects)
		projects.POST("/create", h.CreateProject)
		projects.GET("/:id", h.GetProject)
	}
}

// GetAllProjects lists every project without its code buffer.
func (h *HTTPHandler) GetAllProjects(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	projects, err := h.projects.List(ctx)
	if err != nil {
		l.Error().Err(err).Msg("failed to list projects")
		response.InternalError(c, "failed to list projects")
		return
	}

	summaries := make([]domain.ProjectSummary, len(projects))
	for i, p := range projects {
		summaries[i] = p.ToSummary()
	}

	response.Success(c, summaries)
}

// CreateProject creates a new project with an empty code buffer.
func (h *HTTPHandler) CreateProject(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind create project request")
		response.BadRequest(c, err.Error())
		return
	}

	project := &domain.Project{
		Name:        req.Name,
		Description: req.Description,
	}
	if err := h.projects.Create(ctx, project); err != nil {
		l.Error().Err(err).Msg("failed to create project")
		response.InternalError(c, "failed to create project")
		return
	}

	response.Created(c, project)
}

// GetProject retrieves a project by ID, code buffer included.
func (h *HTTPHandler) GetProject(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	projectID := c.Param("id")

	project, err := h.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			response.NotFound(c, "project not found")
			return
		}
		l.Error().Err(err).Str(log.FieldProjectID, projectID).Msg("failed to get project")
		response.InternalError(c, "failed to get project")
		return
	}

	response.Success(c, project)
}
