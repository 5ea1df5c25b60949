package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mpetrov/streamtube/internal/db"
	"github.com/mpetrov/streamtube/internal/handlers"
	"github.com/mpetrov/streamtube/internal/logger"
	"github.com/mpetrov/streamtube/internal/repository/postgres"
	"github.com/mpetrov/streamtube/internal/service/auth"
	"github.com/mpetrov/streamtube/internal/service/auth/tokenmanager"
	"github.com/mpetrov/streamtube/internal/service/user"
	"github.com/mpetrov/streamtube/internal/storage"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
	Logger     logger.Logger
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	log, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	userRepo := &postgres.UserRepo{DB: pool}

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		AccessSecret:  c.AccessTokenSecret,
		RefreshSecret: c.RefreshTokenSecret,
		AccessTTL:     c.AccessTokenTTL,
		RefreshTTL:    c.RefreshTokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	authService, err := auth.NewService(auth.Config{}, tokenManager, userRepo)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	userService, err := user.NewService(userRepo)
	if err != nil {
		return nil, fmt.Errorf("error while creating user service. Err: %w", err)
	}

	media, err := newMediaStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("error while creating media store. Err: %w", err)
	}

	if err := os.MkdirAll(c.UploadTempDir, 0o755); err != nil {
		return nil, fmt.Errorf("error while preparing upload temp dir. Err: %w", err)
	}

	mux := handlers.NewRouter(
		authService,
		userService,
		media,
		handlers.Config{
			Cookies: handlers.CookieConfig{Secure: c.Environment == logger.EnvProduction},
			Uploads: handlers.UploadConfig{TempDir: c.UploadTempDir, MaxUploadSize: c.MaxUploadSize},
		},
		log,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		Logger:     log,
	}, nil
}

func newMediaStore(ctx context.Context, c *Config) (storage.MediaStore, error) {
	if c.MediaBucket == "" {
		return nil, errors.New("media bucket must be configured")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(c.MediaRegion))
	if err != nil {
		return nil, fmt.Errorf("error while loading aws config. Err: %w", err)
	}

	return storage.NewS3Store(s3.NewFromConfig(awsCfg), storage.S3Config{
		Bucket:        c.MediaBucket,
		PublicBaseURL: c.MediaBaseURL,
		Region:        c.MediaRegion,
	})
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.Logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.Logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.Logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
