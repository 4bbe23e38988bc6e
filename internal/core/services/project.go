package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driven"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driving"
)

// Ensure projectService implements ProjectService
var _ driving.ProjectService = (*projectService)(nil)

// projectService implements the ProjectService interface
type projectService struct {
	projectStore  driven.ProjectStore
	documentStore driven.DocumentStore
	sessionStore  driven.SessionStore
	index         driven.VectorIndex
	logger        *slog.Logger
}

// ProjectServiceConfig holds dependencies for the project service.
type ProjectServiceConfig struct {
	ProjectStore  driven.ProjectStore
	DocumentStore driven.DocumentStore
	SessionStore  driven.SessionStore
	Index         driven.VectorIndex
	Logger        *slog.Logger
}

// NewProjectService creates a new ProjectService
func NewProjectService(cfg ProjectServiceConfig) driving.ProjectService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &projectService{
		projectStore:  cfg.ProjectStore,
		documentStore: cfg.DocumentStore,
		sessionStore:  cfg.SessionStore,
		index:         cfg.Index,
		logger:        logger,
	}
}

// Create creates a project
func (s *projectService) Create(ctx context.Context, name, description string) (*domain.Project, error) {
	now := time.Now()
	project := &domain.Project{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := project.Validate(); err != nil {
		return nil, err
	}
	if err := s.projectStore.Save(ctx, project); err != nil {
		return nil, fmt.Errorf("save project: %w", err)
	}
	return project, nil
}

// Get retrieves a project by ID
func (s *projectService) Get(ctx context.Context, id string) (*domain.Project, error) {
	return s.projectStore.Get(ctx, id)
}

// List retrieves all projects
func (s *projectService) List(ctx context.Context, limit, offset int) ([]*domain.Project, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.projectStore.List(ctx, limit, offset)
}

// Delete removes a project and everything scoped to it. The index is
// cleared first: once the project row is gone there is no record left to
// drive a retry, while a leftover row keeps the delete repeatable.
func (s *projectService) Delete(ctx context.Context, id string) error {
	if _, err := s.projectStore.Get(ctx, id); err != nil {
		return err
	}

	if err := s.index.DeleteByProject(ctx, id); err != nil {
		return fmt.Errorf("delete index entries: %w", err)
	}
	if err := s.sessionStore.DeleteByProject(ctx, id); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	if err := s.documentStore.DeleteByProject(ctx, id); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	if err := s.projectStore.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	s.logger.Info("project deleted", "project_id", id)
	return nil
}
