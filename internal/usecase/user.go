package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/arklim/smart-grocery-api/internal/core/domain"
	"github.com/arklim/smart-grocery-api/internal/core/port"
	"github.com/arklim/smart-grocery-api/internal/repository"
)

// ErrInvalidPictureURL indicates the avatar URL is not an http(s) address.
var ErrInvalidPictureURL = errors.New("picture must be an http or https URL")

// ProfileUpdateInput carries a partial profile update. Nil leaves a field
// untouched; an empty string clears it.
type ProfileUpdateInput struct {
	Name    *string
	Picture *string
}

// UserService exposes profile reads and updates.
type UserService struct {
	users port.UserRepository
}

// NewUserService constructs a UserService.
func NewUserService(users port.UserRepository) *UserService {
	return &UserService{users: users}
}

// Get loads a user by id.
func (s *UserService) Get(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

// UpdateProfile applies a partial update and returns the fresh profile.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, input ProfileUpdateInput) (*domain.User, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	name := current.Name
	if input.Name != nil {
		if trimmed := strings.TrimSpace(*input.Name); trimmed == "" {
			name = nil
		} else {
			name = &trimmed
		}
	}

	picture := current.Picture
	if input.Picture != nil {
		trimmed := strings.TrimSpace(*input.Picture)
		switch {
		case trimmed == "":
			picture = nil
		default:
			parsed, err := url.Parse(trimmed)
			if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
				return nil, ErrInvalidPictureURL
			}
			picture = &trimmed
		}
	}

	updated, err := s.users.UpdateProfile(ctx, userID, name, picture)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	return updated, nil
}
