package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/vasapolrittideah/platform-api/services/user-service/internal/audit"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/config"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/email"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/handler"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/repository"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/storage"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/usecase"
	"github.com/vasapolrittideah/platform-api/shared/auth"
	"github.com/vasapolrittideah/platform-api/shared/logger"
	"github.com/vasapolrittideah/platform-api/shared/mailer"
	"github.com/vasapolrittideah/platform-api/shared/validation"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.ServerName, cfg.Log)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("user service stopped")
	}
}

func run(cfg *config.UserServiceConfig, log *zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := connectMongo(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			log.Error().Err(err).Msg("failed to disconnect from mongodb")
		}
	}()
	db := client.Database(cfg.Mongo.Database)

	userRepo := repository.NewUserMongoRepository(ctx, log, db)
	sessionRepo := repository.NewSessionMongoRepository(db)
	groupRepo := repository.NewGroupMongoRepository(ctx, log, db)
	tokenRepo := repository.NewRecoveryTokenMongoRepository(ctx, log, db)
	auditRepo := repository.NewAuditMongoRepository(ctx, log, db)
	txRunner := repository.NewMongoTxRunner(client, cfg.Mongo.Transactions)
	recorder := audit.NewRecorder(auditRepo, log)

	validator, err := validation.New()
	if err != nil {
		return fmt.Errorf("failed to create validator: %w", err)
	}

	smtp, err := mailer.NewMailer(cfg.Mailer, log)
	if err != nil {
		return fmt.Errorf("failed to create mailer: %w", err)
	}
	recoverySender := email.NewRecoveryMailer(smtp, cfg.ServerName, cfg.Token.RecoveryTokenExpiresIn, log)

	avatarStorage, mediaDir, err := newAvatarStorage(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}

	jwtAuth := auth.NewJWTAuthenticator(cfg.Token.Audience, cfg.Token.Issuer)

	if cfg.AdminRoleID == "" {
		log.Warn().Msg("ADMIN_ROLE_ID is not set, no caller is treated as an administrator")
	}

	h := handler.NewUserHTTPHandler(
		usecase.NewAuthUsecase(userRepo, sessionRepo, recorder, jwtAuth, validator, cfg, log),
		usecase.NewUserUsecase(userRepo, auditRepo, recorder, validator, cfg, log),
		usecase.NewRecoveryUsecase(
			userRepo, tokenRepo, sessionRepo, txRunner, recorder, recoverySender, jwtAuth, cfg, log,
		),
		usecase.NewPasswordUsecase(userRepo, recorder, cfg, log),
		usecase.NewGroupUsecase(groupRepo, userRepo, txRunner, recorder, validator, cfg, log),
		usecase.NewAvatarUsecase(userRepo, avatarStorage, recorder, cfg, log),
		cfg.Storage.MaxBytes,
		log,
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler.NewRouter(h, jwtAuth, cfg.Token.AccessTokenSecret, mediaDir, log),
		IdleTimeout:  time.Minute,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting user service")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("graceful shutdown complete")
	return nil
}

func connectMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return client, nil
}

// newAvatarStorage returns the configured avatar store and, for the local
// backend, the directory the router serves under /media.
func newAvatarStorage(
	ctx context.Context,
	cfg config.StorageConfig,
	log *zerolog.Logger,
) (storage.Storage, string, error) {
	if cfg.Backend == config.StorageBackendS3 {
		s3Storage, err := storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			Endpoint:     cfg.S3Endpoint,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			UsePathStyle: cfg.S3UsePathStyle,
		}, log)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create s3 storage: %w", err)
		}
		return s3Storage, "", nil
	}

	return storage.NewLocalStorage(cfg.MediaDir, log), cfg.MediaDir, nil
}
