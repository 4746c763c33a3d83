package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"citylyfe/api/internal/app"
	"citylyfe/api/internal/authpw"
	"citylyfe/api/internal/blob"
	"citylyfe/api/internal/config"
	"citylyfe/api/internal/email"
	"citylyfe/api/internal/search"
	"citylyfe/api/internal/session"
	"citylyfe/api/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	dataStore := store.NewPostgresStore(db)
	passwd := authpw.NewService(dataStore)
	mailer := email.NewService(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	})
	if !mailer.IsConfigured() {
		log.Printf("email not configured; quote and reset emails disabled")
	}

	// Refresh tokens live in Redis when configured, postgres otherwise.
	var sessions interface {
		SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
		LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
		RevokeRefreshSession(ctx context.Context, tokenHash string) error
	} = dataStore
	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Printf("using Redis for refresh token storage")
		redisStore, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer redisStore.Close()
		sessions = redisStore
	} else {
		log.Printf("using PostgreSQL for refresh token storage")
	}

	var blobs blob.Store
	uploadsDir := ""
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		log.Printf("using MinIO at %s for uploads", cfg.MinioEndpoint)
		blobs, err = blob.NewMinioStore(ctx, blob.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			log.Fatalf("minio setup failed: %v", err)
		}
	} else {
		log.Printf("using local directory %s for uploads", cfg.UploadsDir)
		localStore, err := blob.NewLocalStore(cfg.UploadsDir)
		if err != nil {
			log.Fatalf("uploads dir setup failed: %v", err)
		}
		blobs = localStore
		uploadsDir = localStore.Dir()
	}

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	searchService := search.NewService(meiliClient, search.NewPgLike(db))

	service := app.New(cfg, dataStore, sessions, passwd, mailer, blobs, searchService)
	if err := service.Bootstrap(ctx); err != nil {
		log.Printf("WARNING: bootstrap error (will retry on next restart): %v", err)
	}

	if cfg.TrustHeaderIdentity {
		log.Printf("WARNING: trusting %s header for identity; development only", "x-user-data")
	}

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin, cfg.TrustHeaderIdentity, uploadsDir)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("CityLyfe API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
