package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/platform-api/services/user-service/internal/audit"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/config"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/model"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/repository"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/storage"
)

// AvatarUsecase defines the avatar upload use case.
type AvatarUsecase interface {
	UploadAvatar(ctx context.Context, userID string, file AvatarFile) (*AvatarResult, error)
}

// AvatarFile is an uploaded file as received from the client.
type AvatarFile struct {
	Filename string
	Mimetype string
	Encoding string
	Content  io.Reader
}

const avatarPrefix = "avatar/"

var allowedAvatarExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".webp": {},
}

type avatarUsecase struct {
	userRepo   repository.UserRepository
	storage    storage.Storage
	recorder   audit.Recorder
	storageCfg config.StorageConfig
	logger     *zerolog.Logger
}

func NewAvatarUsecase(
	userRepo repository.UserRepository,
	avatarStorage storage.Storage,
	recorder audit.Recorder,
	userServiceCfg *config.UserServiceConfig,
	logger *zerolog.Logger,
) AvatarUsecase {
	return &avatarUsecase{
		userRepo:   userRepo,
		storage:    avatarStorage,
		recorder:   recorder,
		storageCfg: userServiceCfg.Storage,
		logger:     logger,
	}
}

func (u *avatarUsecase) UploadAvatar(ctx context.Context, userID string, file AvatarFile) (*AvatarResult, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if _, ok := allowedAvatarExtensions[ext]; !ok {
		return nil, newValidationError("file", "file must be a png, jpg, jpeg, gif or webp image")
	}

	user, err := u.userRepo.GetUser(ctx, userID, repository.GetUserOptions{})
	if err != nil {
		return nil, userLookupError("find user", err)
	}

	filename := user.Username + ext
	if _, err := u.storage.Save(
		ctx,
		avatarPrefix+filename,
		file.Mimetype,
		storage.LimitReader(file.Content, u.storageCfg.MaxBytes),
	); err != nil {
		if errors.Is(err, storage.ErrFileTooLarge) {
			return nil, newValidationError("file", "file exceeds the maximum allowed size")
		}
		u.logger.Error().Err(err).Str("user_id", userID).Msg("failed to store avatar")
		return nil, &PersistenceError{Op: "store avatar", Err: err}
	}

	// The suffix busts client caches when a user replaces an avatar with the same extension.
	url := strings.TrimRight(u.storageCfg.BaseURL, "/") + "/" + filename + "?" + rand.Text()[:3]

	if _, err := u.userRepo.UpdateUser(ctx, userID, repository.UpdateUserParams{
		Avatar:    &filename,
		AvatarURL: &url,
	}); err != nil {
		return nil, userLookupError("update avatar", err)
	}

	// A previous avatar with another extension is no longer referenced.
	if user.Avatar != "" && user.Avatar != filename {
		if err := u.storage.Remove(ctx, avatarPrefix+user.Avatar); err != nil {
			u.logger.Warn().
				Err(err).
				Str("user_id", userID).
				Str("avatar", user.Avatar).
				Msg("failed to remove previous avatar")
		}
	}

	u.recorder.Record(ctx, &user.ID, user.ID, model.AuditAvatarChange)

	return &AvatarResult{
		Filename: file.Filename,
		Mimetype: file.Mimetype,
		Encoding: file.Encoding,
		URL:      url,
	}, nil
}
