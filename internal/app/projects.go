package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"citylyfe/api/internal/rbac"
	"citylyfe/api/internal/search"
	"citylyfe/api/internal/store"
	"citylyfe/api/internal/util"
)

// loadOwnedProject loads a project and applies the ownership rule: admins see
// everything, clients only their own. A cross-client id resolves to NotFound
// so project existence is not leaked.
func (s *Service) loadOwnedProject(ctx context.Context, session Session, projectID string) (store.Project, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return store.Project{}, err
	}
	owner := ""
	if project.ClientID != nil {
		owner = *project.ClientID
	}
	if !rbac.CanAccess(session.UserID, rbac.Normalize(session.Role), owner) {
		return store.Project{}, sql.ErrNoRows
	}
	return project, nil
}

func (s *Service) ListProjects(ctx context.Context, session Session) ([]map[string]any, error) {
	var (
		projects []store.Project
		err      error
	)
	if rbac.Normalize(session.Role) == rbac.RoleAdmin {
		projects, err = s.store.ListProjects(ctx)
	} else {
		projects, err = s.store.ListProjectsByClient(ctx, session.UserID)
	}
	if err != nil {
		return nil, err
	}
	payload := make([]map[string]any, 0, len(projects))
	for _, p := range projects {
		payload = append(payload, projectPayload(p))
	}
	return payload, nil
}

func (s *Service) FeaturedProjects(ctx context.Context) ([]map[string]any, error) {
	projects, err := s.store.ListFeaturedProjects(ctx)
	if err != nil {
		return nil, err
	}
	payload := make([]map[string]any, 0, len(projects))
	for _, p := range projects {
		payload = append(payload, projectPayload(p))
	}
	return payload, nil
}

func (s *Service) GetProject(ctx context.Context, session Session, projectID string) (map[string]any, error) {
	project, err := s.loadOwnedProject(ctx, session, projectID)
	if err != nil {
		return nil, err
	}
	return projectPayload(project), nil
}

type CreateProjectInput struct {
	Name       string  `json:"name"`
	Title      string  `json:"title"`
	ClientName string  `json:"clientName"`
	ClientID   string  `json:"clientId"`
	Status     string  `json:"status"`
	Budget     float64 `json:"budget"`
	Timeline   string  `json:"timeline"`
	Progress   int     `json:"progress"`
}

var validProjectStatuses = map[string]struct{}{
	store.ProjectStatusPlanning:   {},
	store.ProjectStatusInProgress: {},
	store.ProjectStatusCompleted:  {},
	store.ProjectStatusOnHold:     {},
	store.ProjectStatusQuote:      {},
}

func (s *Service) CreateProject(ctx context.Context, input CreateProjectInput) (map[string]any, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	status := input.Status
	if status == "" {
		status = store.ProjectStatusPlanning
	}
	if _, ok := validProjectStatuses[status]; !ok {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("unknown status %q", status), nil)
	}
	if input.Budget < 0 {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "budget must not be negative", nil)
	}
	if input.Progress < 0 || input.Progress > 100 {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "progress must be between 0 and 100", nil)
	}

	project := store.Project{
		ID:         util.NewID("prj"),
		Name:       strings.TrimSpace(input.Name),
		Title:      input.Title,
		ClientName: input.ClientName,
		Status:     status,
		Budget:     input.Budget,
		Timeline:   input.Timeline,
		Progress:   input.Progress,
	}
	if input.ClientID != "" {
		client, err := s.store.GetClient(ctx, input.ClientID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "clientId does not exist", nil)
			}
			return nil, err
		}
		project.ClientID = &client.ID
		if project.ClientName == "" {
			project.ClientName = client.Name
		}
	}

	if err := s.store.InsertProject(ctx, project); err != nil {
		return nil, err
	}
	if project.ClientID != nil {
		if err := s.store.RecalculateClientStats(ctx, *project.ClientID); err != nil {
			log.Printf("projects: recalculate stats for %s: %v", *project.ClientID, err)
		}
	}
	s.indexProject(project)

	created, err := s.store.GetProject(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	return projectPayload(created), nil
}

type UpdateProjectInput struct {
	Name          *string  `json:"name"`
	Title         *string  `json:"title"`
	ClientName    *string  `json:"clientName"`
	ClientID      *string  `json:"clientId"`
	Status        *string  `json:"status"`
	Budget        *float64 `json:"budget"`
	Timeline      *string  `json:"timeline"`
	Progress      *int     `json:"progress"`
	Featured      *bool    `json:"featured"`
	FeaturedOrder *int     `json:"featuredOrder"`
}

func (s *Service) UpdateProject(ctx context.Context, projectID string, input UpdateProjectInput) (map[string]any, error) {
	before, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if input.Name != nil {
		fields["name"] = *input.Name
	}
	if input.Title != nil {
		fields["title"] = *input.Title
	}
	if input.ClientName != nil {
		fields["client_name"] = *input.ClientName
	}
	if input.ClientID != nil {
		if *input.ClientID == "" {
			fields["client_id"] = nil
		} else {
			if _, err := s.store.GetClient(ctx, *input.ClientID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "clientId does not exist", nil)
				}
				return nil, err
			}
			fields["client_id"] = *input.ClientID
		}
	}
	if input.Status != nil {
		if _, ok := validProjectStatuses[*input.Status]; !ok {
			return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("unknown status %q", *input.Status), nil)
		}
		fields["status"] = *input.Status
	}
	if input.Budget != nil {
		if *input.Budget < 0 {
			return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "budget must not be negative", nil)
		}
		fields["budget"] = *input.Budget
	}
	if input.Timeline != nil {
		fields["timeline"] = *input.Timeline
	}
	if input.Progress != nil {
		if *input.Progress < 0 || *input.Progress > 100 {
			return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "progress must be between 0 and 100", nil)
		}
		fields["progress"] = *input.Progress
	}

	if len(fields) > 0 {
		if err := s.store.UpdateProject(ctx, projectID, fields); err != nil {
			return nil, err
		}
	}

	if input.Featured != nil {
		order := 0
		if input.FeaturedOrder != nil {
			order = *input.FeaturedOrder
		}
		if err := s.store.SetProjectFeatured(ctx, projectID, *input.Featured, order); err != nil {
			return nil, err
		}
	}

	after, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	// Budget, status, and client changes all move the derived client counters.
	for _, clientID := range affectedClients(before, after) {
		if err := s.store.RecalculateClientStats(ctx, clientID); err != nil {
			log.Printf("projects: recalculate stats for %s: %v", clientID, err)
		}
	}
	s.indexProject(after)

	return projectPayload(after), nil
}

func affectedClients(before, after store.Project) []string {
	seen := map[string]struct{}{}
	var ids []string
	for _, p := range []store.Project{before, after} {
		if p.ClientID == nil {
			continue
		}
		if _, ok := seen[*p.ClientID]; ok {
			continue
		}
		seen[*p.ClientID] = struct{}{}
		ids = append(ids, *p.ClientID)
	}
	return ids
}

// DeleteProject removes the project row. Files and messages go with it via
// the schema cascade; blob objects are removed best-effort first.
func (s *Service) DeleteProject(ctx context.Context, projectID string) error {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	files, err := s.store.ListFilesByProject(ctx, projectID)
	if err != nil {
		return err
	}

	affected, err := s.store.DeleteProject(ctx, projectID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	for _, f := range files {
		if err := s.blobs.Remove(ctx, f.URL); err != nil {
			log.Printf("projects: remove blob %s: %v", f.URL, err)
		}
	}
	if project.ClientID != nil {
		if err := s.store.RecalculateClientStats(ctx, *project.ClientID); err != nil {
			log.Printf("projects: recalculate stats for %s: %v", *project.ClientID, err)
		}
	}
	if s.search != nil {
		s.search.DeleteProject(projectID)
	}
	return nil
}

func (s *Service) indexProject(p store.Project) {
	if s.search == nil {
		return
	}
	s.search.IndexProject(projectSearchRecord(p))
}

func projectSearchRecord(p store.Project) search.ProjectRecord {
	return search.ProjectRecord{
		ID:         p.ID,
		Name:       p.Name,
		Title:      p.Title,
		ClientName: p.ClientName,
		Status:     p.Status,
	}
}

func projectPayload(p store.Project) map[string]any {
	payload := map[string]any{
		"id":         p.ID,
		"name":       p.Name,
		"title":      p.Title,
		"clientName": p.ClientName,
		"status":     p.Status,
		"budget":     p.Budget,
		"timeline":   p.Timeline,
		"progress":   p.Progress,
		"featured":   p.Featured,
		"createdAt":  p.CreatedAt,
		"updatedAt":  p.UpdatedAt,
	}
	if p.ClientID != nil {
		payload["clientId"] = *p.ClientID
	}
	if p.FeaturedOrder != nil {
		payload["featuredOrder"] = *p.FeaturedOrder
	}
	return payload
}
