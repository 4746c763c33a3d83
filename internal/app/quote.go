package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"

	"citylyfe/api/internal/email"
	"citylyfe/api/internal/store"
	"citylyfe/api/internal/util"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func validEmail(value string) bool {
	return emailPattern.MatchString(strings.TrimSpace(value))
}

type QuoteRequestInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Message string `json:"message"`
}

// SubmitQuoteRequest turns a contact-form submission into a client record,
// a quote project, and an admin notification. The outbound email is
// best-effort: a send failure is logged and never changes the response.
func (s *Service) SubmitQuoteRequest(ctx context.Context, input QuoteRequestInput) (map[string]any, error) {
	name := strings.TrimSpace(input.Name)
	emailAddr := strings.ToLower(strings.TrimSpace(input.Email))
	message := strings.TrimSpace(input.Message)

	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if emailAddr == "" {
		missing = append(missing, "email")
	}
	if message == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR",
			fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")), map[string]any{"fields": missing})
	}
	if !validEmail(emailAddr) {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "email is not a valid address", nil)
	}

	// Reuse the client when the email is already known. Each submission still
	// gets its own quote project.
	client, err := s.store.GetClientByEmail(ctx, emailAddr)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		client = store.Client{
			ID:      util.NewID("cl"),
			Name:    name,
			Email:   emailAddr,
			Company: input.Company,
			Phone:   input.Phone,
		}
		if err := s.store.InsertClient(ctx, client); err != nil {
			// Lost a create race against a concurrent submission; reread.
			if errors.Is(err, store.ErrDuplicate) {
				client, err = s.store.GetClientByEmail(ctx, emailAddr)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
	}

	project := store.Project{
		ID:         util.NewID("prj"),
		Name:       fmt.Sprintf("Quote request from %s", name),
		ClientName: client.Name,
		ClientID:   &client.ID,
		Status:     store.ProjectStatusQuote,
		Budget:     0,
		Timeline:   "TBD",
	}
	if err := s.store.InsertProject(ctx, project); err != nil {
		return nil, err
	}
	if err := s.store.RecalculateClientStats(ctx, client.ID); err != nil {
		log.Printf("quote: recalculate stats for %s: %v", client.ID, err)
	}
	s.indexProject(project)
	s.indexClient(client)

	notification := store.Notification{
		ID:      util.NewID("ntf"),
		Type:    "quote_request",
		Title:   "New quote request",
		Message: fmt.Sprintf("%s (%s) requested a quote", name, emailAddr),
		Link:    s.cfg.DashboardURL,
	}
	if err := s.store.InsertNotification(ctx, notification); err != nil {
		return nil, err
	}

	s.sendQuoteEmail(input, name, emailAddr)

	return map[string]any{
		"ok":        true,
		"clientId":  client.ID,
		"projectId": project.ID,
	}, nil
}

func (s *Service) sendQuoteEmail(input QuoteRequestInput, name, emailAddr string) {
	if !s.mailer.IsConfigured() || s.cfg.NotifyEmail == "" {
		return
	}
	err := s.mailer.SendQuoteNotification(s.cfg.NotifyEmail, email.QuoteRequestData{
		Name:         name,
		Email:        emailAddr,
		Phone:        input.Phone,
		Company:      input.Company,
		Message:      input.Message,
		DashboardURL: s.cfg.DashboardURL,
	})
	if err != nil {
		log.Printf("quote: notification email: %v", err)
	}
}
