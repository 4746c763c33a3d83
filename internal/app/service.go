package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"citylyfe/api/internal/auth"
	"citylyfe/api/internal/authpw"
	"citylyfe/api/internal/blob"
	"citylyfe/api/internal/config"
	"citylyfe/api/internal/email"
	"citylyfe/api/internal/rbac"
	"citylyfe/api/internal/search"
	"citylyfe/api/internal/store"
	"citylyfe/api/internal/util"
)

// Session is the resolved caller for one request.
type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	Email        string
	Role         string
	ExpiresAt    time.Time
}

type dataStore interface {
	Ping(ctx context.Context) error

	ListProjects(ctx context.Context) ([]store.Project, error)
	ListProjectsByClient(ctx context.Context, clientID string) ([]store.Project, error)
	ListFeaturedProjects(ctx context.Context) ([]store.Project, error)
	GetProject(ctx context.Context, projectID string) (store.Project, error)
	InsertProject(ctx context.Context, item store.Project) error
	UpdateProject(ctx context.Context, projectID string, fields map[string]any) error
	SetProjectFeatured(ctx context.Context, projectID string, featured bool, order int) error
	DeleteProject(ctx context.Context, projectID string) (int64, error)

	ListClients(ctx context.Context) ([]store.Client, error)
	GetClient(ctx context.Context, clientID string) (store.Client, error)
	GetClientByEmail(ctx context.Context, email string) (store.Client, error)
	InsertClient(ctx context.Context, item store.Client) error
	UpdateClient(ctx context.Context, clientID string, fields map[string]any) error
	DeleteClient(ctx context.Context, clientID string) (int64, error)
	RecalculateClientStats(ctx context.Context, clientID string) error

	ListClientContacts(ctx context.Context, clientID string) ([]store.ClientContact, error)
	InsertClientContact(ctx context.Context, item store.ClientContact) error
	DeleteClientContact(ctx context.Context, contactID string) (int64, error)

	ListReviews(ctx context.Context, activeOnly bool) ([]store.Review, error)
	GetReview(ctx context.Context, reviewID string) (store.Review, error)
	InsertReview(ctx context.Context, item store.Review) error
	UpdateReview(ctx context.Context, reviewID string, fields map[string]any) error
	DeleteReview(ctx context.Context, reviewID string) (int64, error)

	ListServices(ctx context.Context, activeOnly bool) ([]store.Service, error)
	GetService(ctx context.Context, serviceID string) (store.Service, error)
	InsertService(ctx context.Context, item store.Service) error
	UpdateService(ctx context.Context, serviceID string, fields map[string]any) error
	DeleteService(ctx context.Context, serviceID string) (int64, error)

	ListNotifications(ctx context.Context, unreadOnly bool) ([]store.Notification, error)
	InsertNotification(ctx context.Context, item store.Notification) error
	MarkNotificationRead(ctx context.Context, notificationID string) error
	MarkAllNotificationsRead(ctx context.Context) error

	GetUserByID(ctx context.Context, userID string) (store.User, error)
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	InsertUser(ctx context.Context, item store.User) error
	UpdateUser(ctx context.Context, userID string, fields map[string]any) error
	UpdateUserPassword(ctx context.Context, userID, passwordHash string) error
	AdminExists(ctx context.Context) (bool, error)
	CreatePasswordReset(ctx context.Context, id, userID, token string, expiresAt time.Time) error
	RedeemPasswordReset(ctx context.Context, token string) (string, error)
	PurgeExpiredResets(ctx context.Context) (int64, error)

	ListFilesByProject(ctx context.Context, projectID string) ([]store.File, error)
	GetFile(ctx context.Context, fileID string) (store.File, error)
	InsertFile(ctx context.Context, item store.File) error
	DeleteFile(ctx context.Context, fileID string) (int64, error)

	ListMessagesForUser(ctx context.Context, userID, projectID string) ([]store.Message, error)
	InsertMessage(ctx context.Context, item store.Message) error
	MarkMessagesRead(ctx context.Context, recipientID string, messageIDs []string) (int64, error)
}

// refreshStore holds opaque refresh tokens by hash. Redis when configured,
// postgres otherwise.
type refreshStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions refreshStore
	passwd   *authpw.Service
	mailer   *email.Service
	blobs    blob.Store
	search   *search.Service
}

func New(cfg config.Config, dataStore dataStore, sessions refreshStore, passwd *authpw.Service, mailer *email.Service, blobs blob.Store, searchSvc *search.Service) *Service {
	return &Service{
		cfg:      cfg,
		store:    dataStore,
		sessions: sessions,
		passwd:   passwd,
		mailer:   mailer,
		blobs:    blobs,
		search:   searchSvc,
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) Can(role string, action rbac.Action) bool {
	return rbac.Can(rbac.Normalize(role), action)
}

// Bootstrap seeds the admin account and the default service catalog, sweeps
// expired reset tokens, and warms the search index. Safe to run on every start.
func (s *Service) Bootstrap(ctx context.Context) error {
	adminExists, err := s.store.AdminExists(ctx)
	if err != nil {
		return fmt.Errorf("check admin: %w", err)
	}
	if !adminExists {
		if s.cfg.AdminPassword == "" {
			log.Println("bootstrap: no admin account and CITYLYFE_ADMIN_PASSWORD unset; admin login unavailable")
		} else {
			_, err := s.passwd.CreateUser(ctx, util.NewID("usr"), s.cfg.AdminName, s.cfg.AdminEmail, s.cfg.AdminPassword, string(rbac.RoleAdmin))
			if err != nil && !errors.Is(err, store.ErrDuplicate) {
				return fmt.Errorf("seed admin: %w", err)
			}
			if err == nil {
				log.Printf("bootstrap: seeded admin account %s", s.cfg.AdminEmail)
			}
		}
	}

	services, err := s.store.ListServices(ctx, false)
	if err != nil {
		return fmt.Errorf("list services: %w", err)
	}
	if len(services) == 0 {
		for _, seed := range defaultServiceCatalog() {
			if err := s.store.InsertService(ctx, seed); err != nil {
				return fmt.Errorf("seed service %s: %w", seed.Title, err)
			}
		}
		log.Printf("bootstrap: seeded %d catalog services", len(defaultServiceCatalog()))
	}

	if purged, err := s.store.PurgeExpiredResets(ctx); err != nil {
		log.Printf("bootstrap: purge reset tokens: %v", err)
	} else if purged > 0 {
		log.Printf("bootstrap: purged %d expired reset tokens", purged)
	}

	s.reindexSearch(ctx)
	return nil
}

func (s *Service) reindexSearch(ctx context.Context) {
	if s.search == nil {
		return
	}
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		log.Printf("bootstrap: list projects for reindex: %v", err)
		return
	}
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		log.Printf("bootstrap: list clients for reindex: %v", err)
		return
	}
	projectRecords := make([]search.ProjectRecord, 0, len(projects))
	for _, p := range projects {
		projectRecords = append(projectRecords, projectSearchRecord(p))
	}
	clientRecords := make([]search.ClientRecord, 0, len(clients))
	for _, c := range clients {
		clientRecords = append(clientRecords, clientSearchRecord(c))
	}
	s.search.ReindexAll(projectRecords, clientRecords)
}

// SearchCatalog runs the admin dashboard search.
func (s *Service) SearchCatalog(q search.Query) search.Response {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: q.Text}
	}
	return s.search.Search(q)
}

func defaultServiceCatalog() []store.Service {
	return []store.Service{
		{
			ID:          util.NewID("svc"),
			Title:       "Website Design & Build",
			Description: "A custom marketing site built around your brand, from copy layout to launch.",
			Audience:    "Small businesses that need a professional web presence",
			Features:    []string{"Custom design", "Mobile-friendly layout", "Contact and quote forms", "Launch support"},
			Price:       "From $1,500",
			Category:    "project",
			Active:      true,
			SortOrder:   1,
		},
		{
			ID:          util.NewID("svc"),
			Title:       "Monthly Site Care",
			Description: "Hosting, updates, backups, and small content changes handled for you.",
			Audience:    "Businesses that want their site maintained without hiring staff",
			Features:    []string{"Hosting and SSL", "Content updates", "Monthly backups", "Uptime monitoring"},
			Disclaimer:  "Content changes are limited to two hours per month.",
			Price:       "$95/mo",
			Category:    "monthly",
			Active:      true,
			SortOrder:   2,
		},
		{
			ID:               util.NewID("svc"),
			Title:            "Point-of-Sale Setup",
			Description:      "On-site setup of payment hardware and the software that runs it.",
			Audience:         "Storefronts moving off paper or legacy registers",
			Features:         []string{"Hardware installation", "Staff training", "Inventory import"},
			Price:            "From $800",
			Category:         "project",
			HardwareIncluded: true,
			Active:           true,
			SortOrder:        3,
		},
	}
}

// Session lifecycle

func (s *Service) Login(ctx context.Context, emailAddr, password string) (Session, error) {
	user, err := s.passwd.SignIn(ctx, emailAddr, password)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)

	token, err := auth.IssueToken([]byte(s.cfg.TokenSecret), auth.Claims{
		Sub:   user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
		JTI:   util.NewID("jti"),
		Exp:   expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user.ID, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.Name,
		Email:        user.Email,
		Role:         user.Role,
		ExpiresAt:    expiresAt,
	}, nil
}

// SessionFromToken verifies the access token signature and reloads the user
// so role or name changes take effect without waiting for token expiry.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.TokenSecret), token)
	if err != nil {
		return Session{}, err
	}
	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, auth.ErrInvalidToken
		}
		return Session{}, err
	}
	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.Name,
		Email:     user.Email,
		Role:      user.Role,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

// SessionFromHeader is the header-trusting dev resolver. Only wired up when
// CITYLYFE_TRUST_HEADER_IDENTITY is set; never active alongside token auth.
func (s *Service) SessionFromHeader(r *http.Request) (Session, bool) {
	identity := auth.FromTrustedHeader(r)
	if identity == nil {
		return Session{}, false
	}
	return Session{
		UserID:   identity.ID,
		UserName: identity.Name,
		Email:    identity.Email,
		Role:     string(rbac.Normalize(identity.Role)),
	}, true
}

// Refresh rotates the refresh token and issues a fresh access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	ref, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	user, err := s.store.GetUserByID(ctx, ref.ID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// Password reset

func (s *Service) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	token, err := s.passwd.RequestPasswordReset(ctx, emailAddr)
	if err != nil {
		return err
	}
	if token == "" {
		// Unknown email. The response stays uniform either way.
		return nil
	}
	if !s.mailer.IsConfigured() {
		log.Printf("auth: reset token issued for %s but email is not configured", emailAddr)
		return nil
	}
	user, err := s.store.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		return nil
	}
	resetURL := strings.TrimSuffix(s.cfg.DashboardURL, "/admin") + "/reset-password?token=" + token
	if err := s.mailer.SendPasswordResetEmail(user.Email, user.Name, resetURL); err != nil {
		log.Printf("auth: send reset email to %s: %v", user.Email, err)
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	return s.passwd.ResetPassword(ctx, token, newPassword)
}

// Profile

func (s *Service) GetProfile(ctx context.Context, session Session) (map[string]any, error) {
	user, err := s.store.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	return userPayload(user), nil
}

type UpdateProfileInput struct {
	Name            string `json:"name"`
	Company         string `json:"company"`
	Phone           string `json:"phone"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (s *Service) UpdateProfile(ctx context.Context, session Session, input UpdateProfileInput) (map[string]any, error) {
	fields := map[string]any{}
	if strings.TrimSpace(input.Name) != "" {
		fields["name"] = strings.TrimSpace(input.Name)
	}
	if input.Company != "" {
		fields["company"] = input.Company
	}
	if input.Phone != "" {
		fields["phone"] = input.Phone
	}
	if len(fields) > 0 {
		if err := s.store.UpdateUser(ctx, session.UserID, fields); err != nil {
			return nil, err
		}
	}

	if input.NewPassword != "" {
		if input.CurrentPassword == "" {
			return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "currentPassword is required to change the password", nil)
		}
		if err := s.passwd.ChangePassword(ctx, session.UserID, input.CurrentPassword, input.NewPassword); err != nil {
			return nil, err
		}
	}

	user, err := s.store.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	return userPayload(user), nil
}

func userPayload(user store.User) map[string]any {
	return map[string]any{
		"id":        user.ID,
		"name":      user.Name,
		"email":     user.Email,
		"role":      user.Role,
		"company":   user.Company,
		"phone":     user.Phone,
		"createdAt": user.CreatedAt,
	}
}
