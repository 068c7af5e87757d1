package service

import (
	"context"

	"ripple/internal/media"
	"ripple/internal/models"
	"ripple/internal/repository"
)

// UserService handles profile reads and updates. Avatar uploads run under the
// Strict media policy: a relay failure fails the whole update and nothing is
// persisted.
type UserService struct {
	userRepo repository.UserRepository
	uploader media.Uploader
}

type UpdateProfileInput struct {
	UserID     uint
	Bio        string
	AvatarData string
}

func NewUserService(userRepo repository.UserRepository, uploader media.Uploader) *UserService {
	return &UserService{userRepo: userRepo, uploader: uploader}
}

func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	const maxBioLen = 500

	if in.Bio != "" {
		if len(in.Bio) > maxBioLen {
			return nil, models.NewInvalidContentError("Bio too long (max 500 characters)")
		}
		user.Bio = in.Bio
	}

	if in.AvatarData != "" {
		uploadCtx, cancel := context.WithTimeout(ctx, media.ProfileImageTimeout)
		url, uploadErr := s.uploader.Upload(uploadCtx, in.AvatarData, media.KindImage, media.FolderProfiles)
		cancel()
		if uploadErr != nil {
			return nil, models.NewMediaUploadFailedError(uploadErr)
		}
		user.Avatar = url
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}
