package app

import (
	"context"
	"database/sql"
	"net/http"
	"strings"

	"citylyfe/api/internal/search"
	"citylyfe/api/internal/store"
	"citylyfe/api/internal/util"
)

func (s *Service) ListClients(ctx context.Context) ([]map[string]any, error) {
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	payload := make([]map[string]any, 0, len(clients))
	for _, c := range clients {
		payload = append(payload, clientPayload(c))
	}
	return payload, nil
}

func (s *Service) GetClient(ctx context.Context, clientID string) (map[string]any, error) {
	client, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return clientPayload(client), nil
}

type CreateClientInput struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Company      string `json:"company"`
	Phone        string `json:"phone"`
	Website      string `json:"website"`
	BusinessName string `json:"businessName"`
	Address      string `json:"address"`
}

func (s *Service) CreateClient(ctx context.Context, input CreateClientInput) (map[string]any, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	if !validEmail(input.Email) {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "a valid email is required", nil)
	}

	client := store.Client{
		ID:           util.NewID("cl"),
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		Company:      input.Company,
		Phone:        input.Phone,
		Website:      input.Website,
		BusinessName: input.BusinessName,
		Address:      input.Address,
	}
	if err := s.store.InsertClient(ctx, client); err != nil {
		return nil, err
	}
	s.indexClient(client)

	created, err := s.store.GetClient(ctx, client.ID)
	if err != nil {
		return nil, err
	}
	return clientPayload(created), nil
}

type UpdateClientInput struct {
	Name         *string `json:"name"`
	Email        *string `json:"email"`
	Company      *string `json:"company"`
	Phone        *string `json:"phone"`
	Website      *string `json:"website"`
	BusinessName *string `json:"businessName"`
	Address      *string `json:"address"`
}

func (s *Service) UpdateClient(ctx context.Context, clientID string, input UpdateClientInput) (map[string]any, error) {
	fields := map[string]any{}
	if input.Name != nil {
		fields["name"] = *input.Name
	}
	if input.Email != nil {
		if !validEmail(*input.Email) {
			return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "a valid email is required", nil)
		}
		fields["email"] = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.Company != nil {
		fields["company"] = *input.Company
	}
	if input.Phone != nil {
		fields["phone"] = *input.Phone
	}
	if input.Website != nil {
		fields["website"] = *input.Website
	}
	if input.BusinessName != nil {
		fields["business_name"] = *input.BusinessName
	}
	if input.Address != nil {
		fields["address"] = *input.Address
	}
	if len(fields) == 0 {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "no fields to update", nil)
	}

	if err := s.store.UpdateClient(ctx, clientID, fields); err != nil {
		return nil, err
	}

	client, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	s.indexClient(client)
	return clientPayload(client), nil
}

func (s *Service) DeleteClient(ctx context.Context, clientID string) error {
	affected, err := s.store.DeleteClient(ctx, clientID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	if s.search != nil {
		s.search.DeleteClient(clientID)
	}
	return nil
}

func (s *Service) indexClient(c store.Client) {
	if s.search == nil {
		return
	}
	s.search.IndexClient(clientSearchRecord(c))
}

func clientSearchRecord(c store.Client) search.ClientRecord {
	return search.ClientRecord{
		ID:      c.ID,
		Name:    c.Name,
		Email:   c.Email,
		Company: c.Company,
	}
}

func clientPayload(c store.Client) map[string]any {
	return map[string]any{
		"id":           c.ID,
		"name":         c.Name,
		"email":        c.Email,
		"company":      c.Company,
		"phone":        c.Phone,
		"website":      c.Website,
		"businessName": c.BusinessName,
		"address":      c.Address,
		"projects":     c.ProjectCount,
		"totalSpent":   c.TotalSpent,
		"createdAt":    c.CreatedAt,
		"updatedAt":    c.UpdatedAt,
	}
}

// Contacts

func (s *Service) ListClientContacts(ctx context.Context, clientID string) ([]map[string]any, error) {
	if _, err := s.store.GetClient(ctx, clientID); err != nil {
		return nil, err
	}
	contacts, err := s.store.ListClientContacts(ctx, clientID)
	if err != nil {
		return nil, err
	}
	payload := make([]map[string]any, 0, len(contacts))
	for _, c := range contacts {
		payload = append(payload, contactPayload(c))
	}
	return payload, nil
}

type CreateContactInput struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
	IsPrimary bool   `json:"isPrimary"`
}

func (s *Service) CreateClientContact(ctx context.Context, clientID string, input CreateContactInput) (map[string]any, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	if _, err := s.store.GetClient(ctx, clientID); err != nil {
		return nil, err
	}

	contact := store.ClientContact{
		ID:        util.NewID("cnt"),
		ClientID:  clientID,
		Name:      strings.TrimSpace(input.Name),
		Email:     input.Email,
		Phone:     input.Phone,
		Role:      input.Role,
		IsPrimary: input.IsPrimary,
	}
	if err := s.store.InsertClientContact(ctx, contact); err != nil {
		return nil, err
	}
	return contactPayload(contact), nil
}

func (s *Service) DeleteClientContact(ctx context.Context, contactID string) error {
	affected, err := s.store.DeleteClientContact(ctx, contactID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func contactPayload(c store.ClientContact) map[string]any {
	return map[string]any{
		"id":        c.ID,
		"clientId":  c.ClientID,
		"name":      c.Name,
		"email":     c.Email,
		"phone":     c.Phone,
		"role":      c.Role,
		"isPrimary": c.IsPrimary,
		"createdAt": c.CreatedAt,
	}
}
