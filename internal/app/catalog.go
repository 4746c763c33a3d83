package app

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"citylyfe/api/internal/store"
	"citylyfe/api/internal/util"
)

// Reviews

func (s *Service) ListReviews(ctx context.Context, activeOnly bool) ([]map[string]any, error) {
	reviews, err := s.store.ListReviews(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	payload := make([]map[string]any, 0, len(reviews))
	for _, r := range reviews {
		payload = append(payload, reviewPayload(r))
	}
	return payload, nil
}

type CreateReviewInput struct {
	ClientName  string `json:"clientName"`
	ClientTitle string `json:"clientTitle"`
	Company     string `json:"company"`
	Rating      int    `json:"rating"`
	ReviewText  string `json:"reviewText"`
	ProjectName string `json:"projectName"`
	ProjectID   string `json:"projectId"`
	ImageURL    string `json:"imageUrl"`
	IsActive    bool   `json:"isActive"`
	SortOrder   int    `json:"sortOrder"`
	Source      string `json:"source"`
	SourceURL   string `json:"sourceUrl"`
	Verified    bool   `json:"verified"`
	Featured    bool   `json:"featured"`
}

func (s *Service) CreateReview(ctx context.Context, input CreateReviewInput) (map[string]any, error) {
	if strings.TrimSpace(input.ClientName) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "clientName is required", nil)
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "rating must be between 1 and 5", nil)
	}
	if strings.TrimSpace(input.ReviewText) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "reviewText is required", nil)
	}
	source := input.Source
	if source == "" {
		source = "direct"
	}

	review := store.Review{
		ID:          util.NewID("rev"),
		ClientName:  strings.TrimSpace(input.ClientName),
		ClientTitle: input.ClientTitle,
		Company:     input.Company,
		Rating:      input.Rating,
		ReviewText:  input.ReviewText,
		ProjectName: input.ProjectName,
		ImageURL:    input.ImageURL,
		IsActive:    input.IsActive,
		SortOrder:   input.SortOrder,
		Source:      source,
		SourceURL:   input.SourceURL,
		Verified:    input.Verified,
		Featured:    input.Featured,
	}
	if input.ProjectID != "" {
		project, err := s.store.GetProject(ctx, input.ProjectID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "projectId does not exist", nil)
			}
			return nil, err
		}
		review.ProjectID = &project.ID
		if review.ProjectName == "" {
			review.ProjectName = project.Name
		}
	}

	if err := s.store.InsertReview(ctx, review); err != nil {
		return nil, err
	}
	created, err := s.store.GetReview(ctx, review.ID)
	if err != nil {
		return nil, err
	}
	return reviewPayload(created), nil
}

type UpdateReviewInput struct {
	ClientName  *string `json:"clientName"`
	ClientTitle *string `json:"clientTitle"`
	Company     *string `json:"company"`
	Rating      *int    `json:"rating"`
	ReviewText  *string `json:"reviewText"`
	ProjectName *string `json:"projectName"`
	ImageURL    *string `json:"imageUrl"`
	IsActive    *bool   `json:"isActive"`
	SortOrder   *int    `json:"sortOrder"`
	Source      *string `json:"source"`
	SourceURL   *string `json:"sourceUrl"`
	Verified    *bool   `json:"verified"`
	Featured    *bool   `json:"featured"`
}

func (s *Service) UpdateReview(ctx context.Context, reviewID string, input UpdateReviewInput) (map[string]any, error) {
	fields := map[string]any{}
	if input.ClientName != nil {
		fields["client_name"] = *input.ClientName
	}
	if input.ClientTitle != nil {
		fields["client_title"] = *input.ClientTitle
	}
	if input.Company != nil {
		fields["company"] = *input.Company
	}
	if input.Rating != nil {
		if *input.Rating < 1 || *input.Rating > 5 {
			return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "rating must be between 1 and 5", nil)
		}
		fields["rating"] = *input.Rating
	}
	if input.ReviewText != nil {
		fields["review_text"] = *input.ReviewText
	}
	if input.ProjectName != nil {
		fields["project_name"] = *input.ProjectName
	}
	if input.ImageURL != nil {
		fields["image_url"] = *input.ImageURL
	}
	if input.IsActive != nil {
		fields["is_active"] = *input.IsActive
	}
	if input.SortOrder != nil {
		fields["sort_order"] = *input.SortOrder
	}
	if input.Source != nil {
		fields["source"] = *input.Source
	}
	if input.SourceURL != nil {
		fields["source_url"] = *input.SourceURL
	}
	if input.Verified != nil {
		fields["verified"] = *input.Verified
	}
	if input.Featured != nil {
		fields["featured"] = *input.Featured
	}
	if len(fields) == 0 {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "no fields to update", nil)
	}

	if err := s.store.UpdateReview(ctx, reviewID, fields); err != nil {
		return nil, err
	}
	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	return reviewPayload(review), nil
}

func (s *Service) DeleteReview(ctx context.Context, reviewID string) error {
	affected, err := s.store.DeleteReview(ctx, reviewID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func reviewPayload(r store.Review) map[string]any {
	payload := map[string]any{
		"id":          r.ID,
		"clientName":  r.ClientName,
		"clientTitle": r.ClientTitle,
		"company":     r.Company,
		"rating":      r.Rating,
		"reviewText":  r.ReviewText,
		"projectName": r.ProjectName,
		"imageUrl":    r.ImageURL,
		"isActive":    r.IsActive,
		"sortOrder":   r.SortOrder,
		"source":      r.Source,
		"sourceUrl":   r.SourceURL,
		"verified":    r.Verified,
		"featured":    r.Featured,
		"createdAt":   r.CreatedAt,
	}
	if r.ProjectID != nil {
		payload["projectId"] = *r.ProjectID
	}
	return payload
}

// Services

func (s *Service) ListServices(ctx context.Context, activeOnly bool) ([]map[string]any, error) {
	services, err := s.store.ListServices(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	payload := make([]map[string]any, 0, len(services))
	for _, svc := range services {
		payload = append(payload, servicePayload(svc))
	}
	return payload, nil
}

type CreateServiceInput struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Audience         string   `json:"audience"`
	Features         []string `json:"features"`
	Disclaimer       string   `json:"disclaimer"`
	Price            string   `json:"price"`
	Category         string   `json:"category"`
	HardwareIncluded bool     `json:"hardwareIncluded"`
	Active           bool     `json:"active"`
	SortOrder        int      `json:"sortOrder"`
}

func (s *Service) CreateService(ctx context.Context, input CreateServiceInput) (map[string]any, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil)
	}
	if input.Category != "project" && input.Category != "monthly" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "category must be project or monthly", nil)
	}

	svc := store.Service{
		ID:               util.NewID("svc"),
		Title:            strings.TrimSpace(input.Title),
		Description:      input.Description,
		Audience:         input.Audience,
		Features:         input.Features,
		Disclaimer:       input.Disclaimer,
		Price:            input.Price,
		Category:         input.Category,
		HardwareIncluded: input.HardwareIncluded,
		Active:           input.Active,
		SortOrder:        input.SortOrder,
	}
	if err := s.store.InsertService(ctx, svc); err != nil {
		return nil, err
	}
	created, err := s.store.GetService(ctx, svc.ID)
	if err != nil {
		return nil, err
	}
	return servicePayload(created), nil
}

type UpdateServiceInput struct {
	Title            *string   `json:"title"`
	Description      *string   `json:"description"`
	Audience         *string   `json:"audience"`
	Features         *[]string `json:"features"`
	Disclaimer       *string   `json:"disclaimer"`
	Price            *string   `json:"price"`
	Category         *string   `json:"category"`
	HardwareIncluded *bool     `json:"hardwareIncluded"`
	Active           *bool     `json:"active"`
	SortOrder        *int      `json:"sortOrder"`
}

func (s *Service) UpdateService(ctx context.Context, serviceID string, input UpdateServiceInput) (map[string]any, error) {
	fields := map[string]any{}
	if input.Title != nil {
		fields["title"] = *input.Title
	}
	if input.Description != nil {
		fields["description"] = *input.Description
	}
	if input.Audience != nil {
		fields["audience"] = *input.Audience
	}
	if input.Features != nil {
		fields["features"] = *input.Features
	}
	if input.Disclaimer != nil {
		fields["disclaimer"] = *input.Disclaimer
	}
	if input.Price != nil {
		fields["price"] = *input.Price
	}
	if input.Category != nil {
		if *input.Category != "project" && *input.Category != "monthly" {
			return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "category must be project or monthly", nil)
		}
		fields["category"] = *input.Category
	}
	if input.HardwareIncluded != nil {
		fields["hardware_included"] = *input.HardwareIncluded
	}
	if input.Active != nil {
		fields["active"] = *input.Active
	}
	if input.SortOrder != nil {
		fields["sort_order"] = *input.SortOrder
	}
	if len(fields) == 0 {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "no fields to update", nil)
	}

	if err := s.store.UpdateService(ctx, serviceID, fields); err != nil {
		return nil, err
	}
	svc, err := s.store.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	return servicePayload(svc), nil
}

func (s *Service) DeleteService(ctx context.Context, serviceID string) error {
	affected, err := s.store.DeleteService(ctx, serviceID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func servicePayload(svc store.Service) map[string]any {
	features := svc.Features
	if features == nil {
		features = []string{}
	}
	return map[string]any{
		"id":               svc.ID,
		"title":            svc.Title,
		"description":      svc.Description,
		"audience":         svc.Audience,
		"features":         features,
		"disclaimer":       svc.Disclaimer,
		"price":            svc.Price,
		"category":         svc.Category,
		"hardwareIncluded": svc.HardwareIncluded,
		"active":           svc.Active,
		"sortOrder":        svc.SortOrder,
	}
}

// Notifications

func (s *Service) ListNotifications(ctx context.Context, unreadOnly bool) ([]map[string]any, error) {
	notifications, err := s.store.ListNotifications(ctx, unreadOnly)
	if err != nil {
		return nil, err
	}
	payload := make([]map[string]any, 0, len(notifications))
	for _, n := range notifications {
		payload = append(payload, map[string]any{
			"id":        n.ID,
			"type":      n.Type,
			"title":     n.Title,
			"message":   n.Message,
			"link":      n.Link,
			"read":      n.Read,
			"createdAt": n.CreatedAt,
		})
	}
	return payload, nil
}

func (s *Service) MarkNotificationRead(ctx context.Context, notificationID string) error {
	return s.store.MarkNotificationRead(ctx, notificationID)
}

func (s *Service) MarkAllNotificationsRead(ctx context.Context) error {
	return s.store.MarkAllNotificationsRead(ctx)
}
