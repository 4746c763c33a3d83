package app

import (
	"context"
	"database/sql"
	"io"
	"sync"
	"time"

	"citylyfe/api/internal/authpw"
	"citylyfe/api/internal/config"
	"citylyfe/api/internal/email"
	"citylyfe/api/internal/store"
)

// fakeStore implements dataStore with per-method function fields. Methods
// without an override return zero values, or sql.ErrNoRows for lookups.
type fakeStore struct {
	listProjectsFn         func(context.Context) ([]store.Project, error)
	listProjectsByClientFn func(context.Context, string) ([]store.Project, error)
	listFeaturedFn         func(context.Context) ([]store.Project, error)
	getProjectFn           func(context.Context, string) (store.Project, error)
	insertProjectFn        func(context.Context, store.Project) error
	updateProjectFn        func(context.Context, string, map[string]any) error
	setProjectFeaturedFn   func(context.Context, string, bool, int) error
	deleteProjectFn        func(context.Context, string) (int64, error)

	getClientFn        func(context.Context, string) (store.Client, error)
	getClientByEmailFn func(context.Context, string) (store.Client, error)
	insertClientFn     func(context.Context, store.Client) error
	deleteClientFn     func(context.Context, string) (int64, error)
	recalcStatsFn      func(context.Context, string) error

	listReviewsFn  func(context.Context, bool) ([]store.Review, error)
	listServicesFn func(context.Context, bool) ([]store.Service, error)

	insertNotificationFn func(context.Context, store.Notification) error

	getUserByIDFn    func(context.Context, string) (store.User, error)
	getUserByEmailFn func(context.Context, string) (store.User, error)
	insertUserFn     func(context.Context, store.User) error
	adminExistsFn    func(context.Context) (bool, error)

	listFilesFn  func(context.Context, string) ([]store.File, error)
	getFileFn    func(context.Context, string) (store.File, error)
	insertFileFn func(context.Context, store.File) error
	deleteFileFn func(context.Context, string) (int64, error)

	listMessagesFn     func(context.Context, string, string) ([]store.Message, error)
	insertMessageFn    func(context.Context, store.Message) error
	markMessagesReadFn func(context.Context, string, []string) (int64, error)
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func (f *fakeStore) ListProjects(ctx context.Context) ([]store.Project, error) {
	if f.listProjectsFn != nil {
		return f.listProjectsFn(ctx)
	}
	return nil, nil
}
func (f *fakeStore) ListProjectsByClient(ctx context.Context, clientID string) ([]store.Project, error) {
	if f.listProjectsByClientFn != nil {
		return f.listProjectsByClientFn(ctx, clientID)
	}
	return nil, nil
}
func (f *fakeStore) ListFeaturedProjects(ctx context.Context) ([]store.Project, error) {
	if f.listFeaturedFn != nil {
		return f.listFeaturedFn(ctx)
	}
	return nil, nil
}
func (f *fakeStore) GetProject(ctx context.Context, projectID string) (store.Project, error) {
	if f.getProjectFn != nil {
		return f.getProjectFn(ctx, projectID)
	}
	return store.Project{}, sql.ErrNoRows
}
func (f *fakeStore) InsertProject(ctx context.Context, item store.Project) error {
	if f.insertProjectFn != nil {
		return f.insertProjectFn(ctx, item)
	}
	return nil
}
func (f *fakeStore) UpdateProject(ctx context.Context, projectID string, fields map[string]any) error {
	if f.updateProjectFn != nil {
		return f.updateProjectFn(ctx, projectID, fields)
	}
	return nil
}
func (f *fakeStore) SetProjectFeatured(ctx context.Context, projectID string, featured bool, order int) error {
	if f.setProjectFeaturedFn != nil {
		return f.setProjectFeaturedFn(ctx, projectID, featured, order)
	}
	return nil
}
func (f *fakeStore) DeleteProject(ctx context.Context, projectID string) (int64, error) {
	if f.deleteProjectFn != nil {
		return f.deleteProjectFn(ctx, projectID)
	}
	return 1, nil
}

func (f *fakeStore) ListClients(context.Context) ([]store.Client, error) { return nil, nil }
func (f *fakeStore) GetClient(ctx context.Context, clientID string) (store.Client, error) {
	if f.getClientFn != nil {
		return f.getClientFn(ctx, clientID)
	}
	return store.Client{}, sql.ErrNoRows
}
func (f *fakeStore) GetClientByEmail(ctx context.Context, email string) (store.Client, error) {
	if f.getClientByEmailFn != nil {
		return f.getClientByEmailFn(ctx, email)
	}
	return store.Client{}, sql.ErrNoRows
}
func (f *fakeStore) InsertClient(ctx context.Context, item store.Client) error {
	if f.insertClientFn != nil {
		return f.insertClientFn(ctx, item)
	}
	return nil
}
func (f *fakeStore) UpdateClient(context.Context, string, map[string]any) error { return nil }
func (f *fakeStore) DeleteClient(ctx context.Context, clientID string) (int64, error) {
	if f.deleteClientFn != nil {
		return f.deleteClientFn(ctx, clientID)
	}
	return 1, nil
}
func (f *fakeStore) RecalculateClientStats(ctx context.Context, clientID string) error {
	if f.recalcStatsFn != nil {
		return f.recalcStatsFn(ctx, clientID)
	}
	return nil
}

func (f *fakeStore) ListClientContacts(context.Context, string) ([]store.ClientContact, error) {
	return nil, nil
}
func (f *fakeStore) InsertClientContact(context.Context, store.ClientContact) error { return nil }
func (f *fakeStore) DeleteClientContact(context.Context, string) (int64, error)     { return 1, nil }

func (f *fakeStore) ListReviews(ctx context.Context, activeOnly bool) ([]store.Review, error) {
	if f.listReviewsFn != nil {
		return f.listReviewsFn(ctx, activeOnly)
	}
	return nil, nil
}
func (f *fakeStore) GetReview(context.Context, string) (store.Review, error) {
	return store.Review{}, sql.ErrNoRows
}
func (f *fakeStore) InsertReview(context.Context, store.Review) error          { return nil }
func (f *fakeStore) UpdateReview(context.Context, string, map[string]any) error { return nil }
func (f *fakeStore) DeleteReview(context.Context, string) (int64, error)        { return 1, nil }

func (f *fakeStore) ListServices(ctx context.Context, activeOnly bool) ([]store.Service, error) {
	if f.listServicesFn != nil {
		return f.listServicesFn(ctx, activeOnly)
	}
	return nil, nil
}
func (f *fakeStore) GetService(context.Context, string) (store.Service, error) {
	return store.Service{}, sql.ErrNoRows
}
func (f *fakeStore) InsertService(context.Context, store.Service) error          { return nil }
func (f *fakeStore) UpdateService(context.Context, string, map[string]any) error { return nil }
func (f *fakeStore) DeleteService(context.Context, string) (int64, error)        { return 1, nil }

func (f *fakeStore) ListNotifications(context.Context, bool) ([]store.Notification, error) {
	return nil, nil
}
func (f *fakeStore) InsertNotification(ctx context.Context, item store.Notification) error {
	if f.insertNotificationFn != nil {
		return f.insertNotificationFn(ctx, item)
	}
	return nil
}
func (f *fakeStore) MarkNotificationRead(context.Context, string) error { return nil }
func (f *fakeStore) MarkAllNotificationsRead(context.Context) error     { return nil }

func (f *fakeStore) GetUserByID(ctx context.Context, userID string) (store.User, error) {
	if f.getUserByIDFn != nil {
		return f.getUserByIDFn(ctx, userID)
	}
	return store.User{}, sql.ErrNoRows
}
func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	if f.getUserByEmailFn != nil {
		return f.getUserByEmailFn(ctx, email)
	}
	return store.User{}, sql.ErrNoRows
}
func (f *fakeStore) InsertUser(ctx context.Context, item store.User) error {
	if f.insertUserFn != nil {
		return f.insertUserFn(ctx, item)
	}
	return nil
}
func (f *fakeStore) UpdateUser(context.Context, string, map[string]any) error { return nil }
func (f *fakeStore) UpdateUserPassword(context.Context, string, string) error { return nil }
func (f *fakeStore) AdminExists(ctx context.Context) (bool, error) {
	if f.adminExistsFn != nil {
		return f.adminExistsFn(ctx)
	}
	return true, nil
}
func (f *fakeStore) CreatePasswordReset(context.Context, string, string, string, time.Time) error {
	return nil
}
func (f *fakeStore) RedeemPasswordReset(context.Context, string) (string, error) {
	return "", store.ErrTokenInvalid
}
func (f *fakeStore) PurgeExpiredResets(context.Context) (int64, error) { return 0, nil }

func (f *fakeStore) ListFilesByProject(ctx context.Context, projectID string) ([]store.File, error) {
	if f.listFilesFn != nil {
		return f.listFilesFn(ctx, projectID)
	}
	return nil, nil
}
func (f *fakeStore) GetFile(ctx context.Context, fileID string) (store.File, error) {
	if f.getFileFn != nil {
		return f.getFileFn(ctx, fileID)
	}
	return store.File{}, sql.ErrNoRows
}
func (f *fakeStore) InsertFile(ctx context.Context, item store.File) error {
	if f.insertFileFn != nil {
		return f.insertFileFn(ctx, item)
	}
	return nil
}
func (f *fakeStore) DeleteFile(ctx context.Context, fileID string) (int64, error) {
	if f.deleteFileFn != nil {
		return f.deleteFileFn(ctx, fileID)
	}
	return 1, nil
}

func (f *fakeStore) ListMessagesForUser(ctx context.Context, userID, projectID string) ([]store.Message, error) {
	if f.listMessagesFn != nil {
		return f.listMessagesFn(ctx, userID, projectID)
	}
	return nil, nil
}
func (f *fakeStore) InsertMessage(ctx context.Context, item store.Message) error {
	if f.insertMessageFn != nil {
		return f.insertMessageFn(ctx, item)
	}
	return nil
}
func (f *fakeStore) MarkMessagesRead(ctx context.Context, recipientID string, messageIDs []string) (int64, error) {
	if f.markMessagesReadFn != nil {
		return f.markMessagesReadFn(ctx, recipientID, messageIDs)
	}
	return int64(len(messageIDs)), nil
}

// fakeRefreshStore is an in-memory refresh token store.
type fakeRefreshStore struct {
	mu     sync.Mutex
	tokens map[string]string
}

func newFakeRefreshStore() *fakeRefreshStore {
	return &fakeRefreshStore{tokens: map[string]string{}}
}

func (f *fakeRefreshStore) SaveRefreshSession(_ context.Context, tokenHash, userID string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[tokenHash] = userID
	return nil
}

func (f *fakeRefreshStore) LookupRefreshSession(_ context.Context, tokenHash string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	userID, ok := f.tokens[tokenHash]
	if !ok {
		return store.User{}, sql.ErrNoRows
	}
	return store.User{ID: userID}, nil
}

func (f *fakeRefreshStore) RevokeRefreshSession(_ context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, tokenHash)
	return nil
}

// fakeBlob records puts and removes.
type fakeBlob struct {
	mu      sync.Mutex
	puts    []string
	removes []string
	putErr  error
}

func (f *fakeBlob) Put(_ context.Context, name string, _ io.Reader, _ int64, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return "", f.putErr
	}
	f.puts = append(f.puts, name)
	return "/uploads/" + name, nil
}

func (f *fakeBlob) Remove(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removes = append(f.removes, name)
	return nil
}

func newTestService(fs *fakeStore) *Service {
	cfg := config.Config{
		TokenSecret:  "test-secret",
		AccessTTL:    time.Hour,
		RefreshTTL:   24 * time.Hour,
		DashboardURL: "http://localhost:3000/admin",
	}
	return New(cfg, fs, newFakeRefreshStore(), authpw.NewService(fs), email.NewService(email.Config{}), &fakeBlob{}, nil)
}
