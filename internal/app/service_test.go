package app

import (
	"context"
	"errors"
	"testing"

	"citylyfe/api/internal/store"
)

func TestBootstrapSeedsAdminAndCatalog(t *testing.T) {
	var users []store.User
	fs := &fakeStore{
		adminExistsFn: func(context.Context) (bool, error) { return false, nil },
		insertUserFn: func(_ context.Context, u store.User) error {
			users = append(users, u)
			return nil
		},
		listServicesFn: func(context.Context, bool) ([]store.Service, error) { return nil, nil },
	}
	svc := newTestService(fs)
	svc.cfg.AdminEmail = "admin@citylyfe.com"
	svc.cfg.AdminPassword = "first-start-password"
	svc.cfg.AdminName = "CityLyfe Admin"

	if err := svc.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}

	if len(users) != 1 {
		t.Fatalf("expected 1 seeded user, got %d", len(users))
	}
	admin := users[0]
	if admin.Role != "admin" || admin.Email != "admin@citylyfe.com" {
		t.Errorf("unexpected admin seed: %+v", admin)
	}
	if admin.PasswordHash == "" || admin.PasswordHash == "first-start-password" {
		t.Error("admin password must be stored hashed")
	}
}

func TestBootstrapSkipsAdminWhenPresent(t *testing.T) {
	fs := &fakeStore{
		insertUserFn: func(context.Context, store.User) error {
			t.Error("must not seed a second admin")
			return nil
		},
		listServicesFn: func(context.Context, bool) ([]store.Service, error) {
			return []store.Service{{ID: "svc_1"}}, nil
		},
	}
	svc := newTestService(fs)
	svc.cfg.AdminPassword = "whatever"

	if err := svc.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
}

func TestUpdateProfileRequiresCurrentPasswordForChange(t *testing.T) {
	fs := &fakeStore{
		getUserByIDFn: func(_ context.Context, id string) (store.User, error) {
			return store.User{ID: id, Name: "Rosa", Email: "rosa@example.com", Role: "client"}, nil
		},
	}
	svc := newTestService(fs)
	session := Session{UserID: "cl_1", Role: "client"}

	_, err := svc.UpdateProfile(context.Background(), session, UpdateProfileInput{
		NewPassword: "brand-new-password",
	})
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected validation error without currentPassword, got %v", err)
	}
}

func TestCreateProjectValidatesInput(t *testing.T) {
	svc := newTestService(&fakeStore{})

	cases := []struct {
		name  string
		input CreateProjectInput
	}{
		{"missing name", CreateProjectInput{Status: store.ProjectStatusPlanning}},
		{"bad status", CreateProjectInput{Name: "x", Status: "shipped"}},
		{"negative budget", CreateProjectInput{Name: "x", Budget: -10}},
		{"progress out of range", CreateProjectInput{Name: "x", Progress: 101}},
		{"unknown client", CreateProjectInput{Name: "x", ClientID: "cl_ghost"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateProject(context.Background(), tc.input)
			var domainErr *DomainError
			if !errors.As(err, &domainErr) || domainErr.Code != "VALIDATION_ERROR" {
				t.Fatalf("expected VALIDATION_ERROR, got %v", err)
			}
		})
	}
}

func TestDeleteProjectCleansUpBlobsAndStats(t *testing.T) {
	owner := "cl_1"
	var recalced []string
	fs := &fakeStore{
		getProjectFn: func(_ context.Context, id string) (store.Project, error) {
			return store.Project{ID: id, Name: "Site", ClientID: &owner}, nil
		},
		listFilesFn: func(context.Context, string) ([]store.File, error) {
			return []store.File{
				{ID: "fil_1", URL: "/uploads/a.pdf"},
				{ID: "fil_2", URL: "/uploads/b.png"},
			}, nil
		},
		recalcStatsFn: func(_ context.Context, clientID string) error {
			recalced = append(recalced, clientID)
			return nil
		},
	}
	svc := newTestService(fs)

	if err := svc.DeleteProject(context.Background(), "prj_1"); err != nil {
		t.Fatalf("DeleteProject failed: %v", err)
	}

	blobStore := svc.blobs.(*fakeBlob)
	if len(blobStore.removes) != 2 {
		t.Errorf("expected 2 blob removals, got %v", blobStore.removes)
	}
	if len(recalced) != 1 || recalced[0] != owner {
		t.Errorf("expected stats recalculation for %s, got %v", owner, recalced)
	}
}
