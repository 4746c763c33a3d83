package app

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"citylyfe/api/internal/store"
	"citylyfe/api/internal/util"
)

// Conversation is a derived grouping of directed messages between one pair of
// participants on one project. Conversations are never stored; they are
// rebuilt from the flat message list on every read.
type Conversation struct {
	Key            string
	ProjectID      string
	ParticipantIDs []string
	Messages       []store.Message
	LastMessage    store.Message
	UnreadCount    int
}

// BuildConversations groups messages by (project, unordered participant
// pair) in a single pass. lastMessage is the max-timestamp message in the
// group; on equal timestamps the later input wins. unreadCount counts
// messages addressed to callerID that are still unread.
func BuildConversations(messages []store.Message, callerID string) []Conversation {
	groups := map[string]*Conversation{}
	var order []string

	for _, m := range messages {
		key := conversationKey(m)
		group, ok := groups[key]
		if !ok {
			group = &Conversation{Key: key, ProjectID: m.ProjectID}
			groups[key] = group
			order = append(order, key)
		}

		group.Messages = append(group.Messages, m)
		for _, id := range []string{m.SenderID, m.RecipientID} {
			if !containsID(group.ParticipantIDs, id) {
				group.ParticipantIDs = append(group.ParticipantIDs, id)
			}
		}
		if len(group.Messages) == 1 || !m.CreatedAt.Before(group.LastMessage.CreatedAt) {
			group.LastMessage = m
		}
		if !m.Read && m.RecipientID == callerID {
			group.UnreadCount++
		}
	}

	conversations := make([]Conversation, 0, len(order))
	for _, key := range order {
		conversations = append(conversations, *groups[key])
	}
	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].LastMessage.CreatedAt.After(conversations[j].LastMessage.CreatedAt)
	})
	return conversations
}

func conversationKey(m store.Message) string {
	a, b := m.SenderID, m.RecipientID
	if a > b {
		a, b = b, a
	}
	return m.ProjectID + "|" + a + "|" + b
}

func containsID(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

// ListConversations fetches the caller's messages (optionally scoped to one
// project) and groups them into conversations with participant details.
func (s *Service) ListConversations(ctx context.Context, session Session, projectID string) ([]map[string]any, error) {
	messages, err := s.store.ListMessagesForUser(ctx, session.UserID, projectID)
	if err != nil {
		return nil, err
	}
	conversations := BuildConversations(messages, session.UserID)

	// Participant attributes are resolved once per distinct id.
	users := map[string]store.User{}
	lookup := func(id string) store.User {
		if u, ok := users[id]; ok {
			return u
		}
		u, err := s.store.GetUserByID(ctx, id)
		if err != nil {
			u = store.User{ID: id}
		}
		users[id] = u
		return u
	}

	payload := make([]map[string]any, 0, len(conversations))
	for _, conv := range conversations {
		participants := make([]map[string]any, 0, len(conv.ParticipantIDs))
		for _, id := range conv.ParticipantIDs {
			u := lookup(id)
			participants = append(participants, map[string]any{
				"id":   u.ID,
				"name": u.Name,
				"role": u.Role,
			})
		}
		messagesPayload := make([]map[string]any, 0, len(conv.Messages))
		for _, m := range conv.Messages {
			messagesPayload = append(messagesPayload, messagePayload(m))
		}
		payload = append(payload, map[string]any{
			"id":           conv.Key,
			"projectId":    conv.ProjectID,
			"participants": participants,
			"messages":     messagesPayload,
			"lastMessage":  messagePayload(conv.LastMessage),
			"unreadCount":  conv.UnreadCount,
		})
	}
	return payload, nil
}

type SendMessageInput struct {
	RecipientID string `json:"recipientId"`
	ProjectID   string `json:"projectId"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
}

// SendMessage inserts a directed message from the caller. Clients may only
// message on projects they own.
func (s *Service) SendMessage(ctx context.Context, session Session, input SendMessageInput) (map[string]any, error) {
	if strings.TrimSpace(input.Body) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "body is required", nil)
	}
	if input.RecipientID == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "recipientId is required", nil)
	}
	if input.ProjectID == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "projectId is required", nil)
	}
	if input.RecipientID == session.UserID {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "cannot message yourself", nil)
	}

	if _, err := s.loadOwnedProject(ctx, session, input.ProjectID); err != nil {
		return nil, err
	}

	message := store.Message{
		ID:          util.NewID("msg"),
		SenderID:    session.UserID,
		RecipientID: input.RecipientID,
		ProjectID:   input.ProjectID,
		Subject:     input.Subject,
		Body:        input.Body,
	}
	if err := s.store.InsertMessage(ctx, message); err != nil {
		return nil, err
	}
	return messagePayload(message), nil
}

type MarkMessagesReadInput struct {
	MessageIDs []string `json:"messageIds"`
}

// MarkMessagesRead flips the read flag on the given messages. The update is
// scoped to the caller as recipient, so ids belonging to others are ignored.
func (s *Service) MarkMessagesRead(ctx context.Context, session Session, input MarkMessagesReadInput) (map[string]any, error) {
	if len(input.MessageIDs) == 0 {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "messageIds is required", nil)
	}
	updated, err := s.store.MarkMessagesRead(ctx, session.UserID, input.MessageIDs)
	if err != nil {
		return nil, err
	}
	return map[string]any{"updated": updated}, nil
}

func messagePayload(m store.Message) map[string]any {
	return map[string]any{
		"id":          m.ID,
		"senderId":    m.SenderID,
		"recipientId": m.RecipientID,
		"projectId":   m.ProjectID,
		"subject":     m.Subject,
		"body":        m.Body,
		"read":        m.Read,
		"createdAt":   m.CreatedAt,
	}
}
