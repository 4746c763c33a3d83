package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"citylyfe/api/internal/auth"
	"citylyfe/api/internal/authpw"
	"citylyfe/api/internal/rbac"
	"citylyfe/api/internal/search"
	"citylyfe/api/internal/store"
)

type HTTPServer struct {
	service     *Service
	corsOrigin  string
	trustHeader bool
	uploadsDir  string
}

func NewHTTPServer(service *Service, corsOrigin string, trustHeader bool, uploadsDir string) *HTTPServer {
	return &HTTPServer{
		service:     service,
		corsOrigin:  corsOrigin,
		trustHeader: trustHeader,
		uploadsDir:  uploadsDir,
	}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	// Locally stored uploads. MinIO deployments serve blobs directly.
	if r.Method == http.MethodGet && s.uploadsDir != "" && strings.HasPrefix(r.URL.Path, "/uploads/") {
		name := strings.TrimPrefix(r.URL.Path, "/uploads/")
		if name == "" || strings.Contains(name, "..") || strings.Contains(name, "/") {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
			return
		}
		w.Header().Del("Content-Type")
		http.ServeFile(w, r, s.uploadsDir+"/"+name)
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"database": map[string]any{"status": "ok"},
		}

		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["database"] = map[string]any{
				"status": "error",
				"error":  err.Error(),
			}
		}

		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	// Public marketing reads and quote intake

	if r.Method == http.MethodPost && r.URL.Path == "/api/quote-request" {
		var body QuoteRequestInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.SubmitQuoteRequest(r.Context(), body)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusCreated, payload)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/projects/featured" {
		payload, err := s.service.FeaturedProjects(r.Context())
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"projects": payload})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/reviews/active" {
		payload, err := s.service.ListReviews(r.Context(), true)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"reviews": payload})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/services/active" {
		payload, err := s.service.ListServices(r.Context(), true)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"services": payload})
		return
	}

	// Auth routes (no session required)

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/login" {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		session, err := s.service.Login(r.Context(), body.Email, body.Password)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, sessionPayload(session))
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/refresh" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		session, err := s.service.Refresh(r.Context(), body.RefreshToken)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Refresh token invalid", nil)
			return
		}
		writeJSON(w, http.StatusOK, sessionPayload(session))
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/forgot-password" {
		var body struct {
			Email string `json:"email"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		if err := s.service.RequestPasswordReset(r.Context(), body.Email); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		// Uniform response whether or not the account exists.
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "If an account exists, a reset email has been sent",
		})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/reset-password" {
		var body struct {
			Token       string `json:"token"`
			NewPassword string `json:"newPassword"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		if err := s.service.ResetPassword(r.Context(), body.Token, body.NewPassword); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "Password reset successfully"})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/logout" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = decodeBody(r, &body)
		_ = s.service.Logout(r.Context(), body.RefreshToken)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	// Everything below requires a resolved identity.
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	parts := splitPath(r.URL.Path)

	if r.URL.Path == "/api/auth/profile" {
		switch r.Method {
		case http.MethodGet:
			payload, err := s.service.GetProfile(r.Context(), session)
			s.respond(w, payload, err)
		case http.MethodPut:
			var body UpdateProfileInput
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			payload, err := s.service.UpdateProfile(r.Context(), session, body)
			s.respond(w, payload, err)
		default:
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		}
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/search" {
		if !s.requireAdmin(w, session) {
			return
		}
		q := search.Query{
			Text:       strings.TrimSpace(r.URL.Query().Get("q")),
			FilterType: search.ResultType(strings.TrimSpace(r.URL.Query().Get("type"))),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "limit must be an integer", nil)
				return
			}
			q.Limit = parsed
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("offset")); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "offset must be an integer", nil)
				return
			}
			q.Offset = parsed
		}
		writeJSON(w, http.StatusOK, s.service.SearchCatalog(q))
		return
	}

	// Projects

	if r.URL.Path == "/api/projects" {
		switch r.Method {
		case http.MethodGet:
			payload, err := s.service.ListProjects(r.Context(), session)
			s.respondList(w, "projects", payload, err)
		case http.MethodPost:
			if !s.requireAdmin(w, session) {
				return
			}
			var body CreateProjectInput
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			payload, err := s.service.CreateProject(r.Context(), body)
			s.respondCreated(w, payload, err)
		default:
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		}
		return
	}

	if len(parts) == 3 && parts[0] == "api" && parts[1] == "projects" {
		projectID := parts[2]
		switch r.Method {
		case http.MethodGet:
			payload, err := s.service.GetProject(r.Context(), session, projectID)
			s.respond(w, payload, err)
		case http.MethodPut:
			if !s.requireAdmin(w, session) {
				return
			}
			var body UpdateProjectInput
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			payload, err := s.service.UpdateProject(r.Context(), projectID, body)
			s.respond(w, payload, err)
		case http.MethodDelete:
			if !s.requireAdmin(w, session) {
				return
			}
			s.respondOK(w, s.service.DeleteProject(r.Context(), projectID))
		default:
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		}
		return
	}

	// Clients and contacts (admin only)

	if r.URL.Path == "/api/clients" {
		if !s.requireAdmin(w, session) {
			return
		}
		switch r.Method {
		case http.MethodGet:
			payload, err := s.service.ListClients(r.Context())
			s.respondList(w, "clients", payload, err)
		case http.MethodPost:
			var body CreateClientInput
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			payload, err := s.service.CreateClient(r.Context(), body)
			s.respondCreated(w, payload, err)
		default:
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		}
		return
	}

	if len(parts) == 3 && parts[0] == "api" && parts[1] == "clients" {
		if !s.requireAdmin(w, session) {
			return
		}
		clientID := parts[2]
		switch r.Method {
		case http.MethodGet:
			payload, err := s.service.GetClient(r.Context(), clientID)
			s.respond(w, payload, err)
		case http.MethodPut:
			var body UpdateClientInput
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			payload, err := s.service.UpdateClient(r.Context(), clientID, body)
			s.respond(w, payload, err)
		case http.MethodDelete:
			s.respondOK(w, s.service.DeleteClient(r.Context(), clientID))
		default:
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		}
		return
	}

	if len(parts) == 4 && parts[0] == "api" && parts[1] == "clients" && parts[3] == "contacts" {
		if !s.requireAdmin(w, session) {
			return
		}
		clientID := parts[2]
		switch r.Method {
		case http.MethodGet:
			payload, err := s.service.ListClientContacts(r.Context(), clientID)
			s.respondList(w, "contacts", payload, err)
		case http.MethodPost:
			var body CreateContactInput
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			payload, err := s.service.CreateClientContact(r.Context(), clientID, body)
			s.respondCreated(w, payload, err)
		default:
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		}
		return
	}

	if r.Method == http.MethodDelete && len(parts) == 3 && parts[0] == "api" && parts[1] == "contacts" {
		if !s.requireAdmin(w, session) {
			return
		}
		s.respondOK(w, s.service.DeleteClientContact(r.Context(), parts[2]))
		return
	}

	// Reviews (admin only beyond the public active list)

	if r.URL.Path == "/api/reviews" {
		if !s.requireAdmin(w, session) {
			return
		}
		switch r.Method {
		case http.MethodGet:
			payload, err := s.service.ListReviews(r.Context(), false)
			s.respondList(w, "reviews", payload, err)
		case http.MethodPost:
			var body CreateReviewInput
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			payload, err := s.service.CreateReview(r.Context(), body)
			s.respondCreated(w, payload, err)
		default:
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		}
		return
	}

	if len(parts) == 3 && parts[0] == "api" && parts[1] == "reviews" {
		if !s.requireAdmin(w, session) {
			return
		}
		reviewID := parts[2]
		switch r.Method {
		case http.MethodPut:
			var body UpdateReviewInput
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			payload, err := s.service.UpdateReview(r.Context(), reviewID, body)
			s.respond(w, payload, err)
		case http.MethodDelete:
			s.respondOK(w, s.service.DeleteReview(r.Context(), reviewID))
		default:
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		}
		return
	}

	// Services catalog (admin only beyond the public active list)

	if r.URL.Path == "/api/services" {
		if !s.requireAdmin(w, session) {
			return
		}
		switch r.Method {
		case http.MethodGet:
			payload, err := s.service.ListServices(r.Context(), false)
			s.respondList(w, "services", payload, err)
		case http.MethodPost:
			var body CreateServiceInput
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			payload, err := s.service.CreateService(r.Context(), body)
			s.respondCreated(w, payload, err)
		default:
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		}
		return
	}

	if len(parts) == 3 && parts[0] == "api" && parts[1] == "services" {
		if !s.requireAdmin(w, session) {
			return
		}
		serviceID := parts[2]
		switch r.Method {
		case http.MethodPut:
			var body UpdateServiceInput
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			payload, err := s.service.UpdateService(r.Context(), serviceID, body)
			s.respond(w, payload, err)
		case http.MethodDelete:
			s.respondOK(w, s.service.DeleteService(r.Context(), serviceID))
		default:
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		}
		return
	}

	// Notifications (admin)

	if r.Method == http.MethodGet && r.URL.Path == "/api/notifications" {
		if !s.requireAdmin(w, session) {
			return
		}
		unreadOnly := r.URL.Query().Get("unread") == "true"
		payload, err := s.service.ListNotifications(r.Context(), unreadOnly)
		s.respondList(w, "notifications", payload, err)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/notifications/read-all" {
		if !s.requireAdmin(w, session) {
			return
		}
		s.respondOK(w, s.service.MarkAllNotificationsRead(r.Context()))
		return
	}

	if r.Method == http.MethodPost && len(parts) == 4 && parts[0] == "api" && parts[1] == "notifications" && parts[3] == "read" {
		if !s.requireAdmin(w, session) {
			return
		}
		s.respondOK(w, s.service.MarkNotificationRead(r.Context(), parts[2]))
		return
	}

	// Files

	if r.Method == http.MethodPost && r.URL.Path == "/api/files/upload" {
		s.handleFileUpload(w, r, session)
		return
	}

	if r.Method == http.MethodGet && len(parts) == 3 && parts[0] == "api" && parts[1] == "files" {
		payload, err := s.service.ListFiles(r.Context(), session, parts[2])
		s.respondList(w, "files", payload, err)
		return
	}

	if r.Method == http.MethodDelete && len(parts) == 3 && parts[0] == "api" && parts[1] == "files" {
		s.respondOK(w, s.service.DeleteFile(r.Context(), session, parts[2]))
		return
	}

	// Messages

	if r.Method == http.MethodGet && r.URL.Path == "/api/messages" {
		projectID := strings.TrimSpace(r.URL.Query().Get("projectId"))
		payload, err := s.service.ListConversations(r.Context(), session, projectID)
		s.respondList(w, "conversations", payload, err)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/messages/send" {
		var body SendMessageInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.SendMessage(r.Context(), session, body)
		s.respondCreated(w, payload, err)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/messages/mark-read" {
		var body MarkMessagesReadInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.MarkMessagesRead(r.Context(), session, body)
		s.respond(w, payload, err)
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleFileUpload(w http.ResponseWriter, r *http.Request, session Session) {
	// The reader cap is slightly above the file ceiling to leave room for
	// multipart framing and the projectId field.
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "file exceeds the 10 MiB limit or the form is malformed", nil)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "a file field is required", nil)
		return
	}
	defer file.Close()

	projectID := strings.TrimSpace(r.FormValue("projectId"))
	payload, err := s.service.UploadFile(r.Context(), session, projectID, header.Filename, header.Size, file)
	s.respondCreated(w, payload, err)
}

func (s *HTTPServer) requireSession(w http.ResponseWriter, r *http.Request) (Session, bool) {
	if s.trustHeader {
		session, ok := s.service.SessionFromHeader(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
			return Session{}, false
		}
		return session, true
	}

	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return Session{}, false
	}
	session, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) || errors.Is(err, auth.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
			return Session{}, false
		}
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Session lookup failed", nil)
		return Session{}, false
	}
	return session, true
}

func (s *HTTPServer) requireAdmin(w http.ResponseWriter, session Session) bool {
	if rbac.Normalize(session.Role) != rbac.RoleAdmin {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
		return false
	}
	return true
}

func (s *HTTPServer) respond(w http.ResponseWriter, payload any, err error) {
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) respondCreated(w http.ResponseWriter, payload any, err error) {
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusCreated, payload)
}

func (s *HTTPServer) respondList(w http.ResponseWriter, key string, payload []map[string]any, err error) {
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	if payload == nil {
		payload = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, map[string]any{key: payload})
}

func (s *HTTPServer) respondOK(w http.ResponseWriter, err error) {
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func sessionPayload(session Session) map[string]any {
	return map[string]any{
		"accessToken":  session.Token,
		"refreshToken": session.RefreshToken,
		"expiresAt":    session.ExpiresAt.Unix(),
		"user": map[string]any{
			"id":    session.UserID,
			"name":  session.UserName,
			"email": session.Email,
			"role":  session.Role,
		},
	}
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID, "+auth.HeaderIdentityName)
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict, "CONFLICT", "Email already registered", nil
	case errors.Is(err, store.ErrFeaturedLimit):
		return http.StatusConflict, "CONFLICT", "At most 3 projects can be featured, with unique order 1-3", nil
	case errors.Is(err, store.ErrEmptyUpdate), errors.Is(err, store.ErrUnknownColumn):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", "no valid fields to update", nil
	case errors.Is(err, store.ErrTokenInvalid), errors.Is(err, authpw.ErrInvalidResetToken):
		return http.StatusBadRequest, "RESET_FAILED", "Invalid or expired reset token", nil
	case errors.Is(err, authpw.ErrWeakPassword):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", authpw.ErrWeakPassword.Error(), nil
	case errors.Is(err, authpw.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken):
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
