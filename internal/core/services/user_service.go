package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"pustaka-desk/internal/adapters/persistence/models"
	"pustaka-desk/internal/adapters/persistence/repositories"
	"pustaka-desk/internal/core/domain"
	"pustaka-desk/internal/pkg/cover"
	"pustaka-desk/internal/pkg/password"
	"pustaka-desk/internal/pkg/validation"

	"gorm.io/gorm"
)

// ErrWeakPassword is returned when a new password is too short
var ErrWeakPassword = errors.New("Kata sandi minimal 6 karakter")

// UserService handles the signed-in librarian's own account
type UserService struct {
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
}

// NewUserService creates a new user service
func NewUserService(
	userRepo repositories.UserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
) *UserService {
	return &UserService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
	}
}

// UpdateProfileInput represents update_profile arguments. A nil Avatar
// leaves the stored one untouched; an empty one clears it.
type UpdateProfileInput struct {
	Name   string  `json:"name" validate:"required,max=100"`
	Email  *string `json:"email" validate:"omitempty,email,max=100"`
	Avatar *string `json:"avatar"`
}

// ChangePasswordInput represents change_password arguments
type ChangePasswordInput struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

func (s *UserService) get(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// GetProfile returns the user's profile
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.UserResponse, error) {
	user, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

// UpdateProfile updates the display name, email and avatar
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, input *UpdateProfileInput) (*models.UserResponse, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	user, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Name = strings.TrimSpace(input.Name)
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.Avatar != nil {
		avatar, err := cover.Normalize(*input.Avatar)
		if err != nil {
			return nil, err
		}
		user.Avatar = avatar
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

// ChangePassword replaces the password after checking the old one. Other
// sessions are signed out.
func (s *UserService) ChangePassword(ctx context.Context, userID uint, input *ChangePasswordInput) error {
	if err := validation.Struct(input); err != nil {
		return err
	}
	if !password.ValidatePassword(input.NewPassword) {
		return ErrWeakPassword
	}

	user, err := s.get(ctx, userID)
	if err != nil {
		return err
	}
	if !password.Verify(input.OldPassword, user.Password) {
		return domain.ErrOldPasswordWrong
	}

	hashed, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}
	user.Password = hashed
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, userID); err != nil {
		return err
	}

	log.Printf("🔑 Password changed for user: %s", user.Username)
	return nil
}
