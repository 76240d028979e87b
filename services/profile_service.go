package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/google/uuid"

	"github.com/brainiak-app/brainiak-core/models"
	"github.com/brainiak-app/brainiak-core/repositories"
	"github.com/brainiak-app/brainiak-core/storage"
)

const avatarMaxBytes = 2 << 20 // 2 MiB

var avatarContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type ProfileService struct {
	tx       repositories.TxManager
	userRepo repositories.UserRepository
	uploader storage.FileUploader
	logger   *slog.Logger
}

func NewProfileService(tx repositories.TxManager, userRepo repositories.UserRepository, uploader storage.FileUploader, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		tx:       tx,
		userRepo: userRepo,
		uploader: uploader,
		logger:   logger,
	}
}

func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	var user *models.User
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		user, err = s.userRepo.GetByID(ctx, exec, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.attachAvatarURL(user)
	return user, nil
}

// UploadAvatar stores the image and records its key on the profile. The old
// avatar, if any, is deleted best effort after the new one is committed.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID string, contentType string, size int64, reader io.Reader) (*models.User, error) {
	ext, ok := avatarContentTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported avatar content type %s", ErrValidation, contentType)
	}
	if size > avatarMaxBytes {
		return nil, fmt.Errorf("%w: avatar exceeds %d bytes", ErrValidation, avatarMaxBytes)
	}

	key := path.Join("avatars", userID, uuid.NewString()+ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, reader); err != nil {
		return nil, err
	}

	var user *models.User
	var oldKey *string
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		current, err := s.userRepo.GetByID(ctx, exec, userID)
		if err != nil {
			return err
		}
		oldKey = current.AvatarKey

		if err := s.userRepo.UpdateAvatarKey(ctx, exec, userID, key); err != nil {
			return err
		}
		current.AvatarKey = &key
		user = current
		return nil
	})
	if err != nil {
		// The upload is orphaned; remove it.
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to delete orphaned avatar", "key", key, "error", delErr)
		}
		return nil, err
	}

	if oldKey != nil && *oldKey != key {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil {
			s.logger.Warn("failed to delete previous avatar", "key", *oldKey, "error", err)
		}
	}

	s.attachAvatarURL(user)
	return user, nil
}

func (s *ProfileService) Leaderboard(ctx context.Context, limit, offset int) ([]models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var users []models.User
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		users, err = s.userRepo.ListTopByPoints(ctx, exec, limit, offset)
		return err
	})
	if err != nil {
		return nil, err
	}
	for i := range users {
		s.attachAvatarURL(&users[i])
	}
	return users, nil
}

func (s *ProfileService) attachAvatarURL(user *models.User) {
	if user.AvatarKey == nil || s.uploader == nil {
		return
	}
	url := s.uploader.GetPublicURL(*user.AvatarKey)
	if url != "" {
		user.AvatarURL = &url
	}
}
