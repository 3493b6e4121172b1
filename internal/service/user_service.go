package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"radar/internal/domain"
	"radar/internal/models"
)

type UserService struct {
	users UserStore
}

func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

type CreateUserInput struct {
	Name   string
	Email  string
	Avatar string
}

// CreateUser stores a new user together with default privacy settings.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || email == "" {
		return nil, domain.InvalidArgument("name and email are required")
	}
	u := &models.User{Name: name, Email: email, Avatar: strings.TrimSpace(in.Avatar)}
	p := models.DefaultPrivacySettings("")
	if err := s.users.CreateWithPrivacy(ctx, u, p); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%w: email already registered", domain.ErrConflict)
		}
		return nil, storage(err)
	}
	u.Privacy = p
	return u, nil
}

// GetUser returns the user with location and privacy settings attached.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, domain.InvalidArgument("userId is required")
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, storage(named(err, "user"))
	}
	return u, nil
}

func (s *UserService) SetAvatar(ctx context.Context, id, avatarURL string) (*models.User, error) {
	if id == "" {
		return nil, domain.InvalidArgument("userId is required")
	}
	if err := s.users.UpdateAvatar(ctx, id, avatarURL); err != nil {
		return nil, storage(named(err, "user"))
	}
	return s.GetUser(ctx, id)
}
