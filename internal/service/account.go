package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/online_restaurant/internal/events"
	"github.com/Skotchmaster/online_restaurant/internal/models"
	"github.com/Skotchmaster/online_restaurant/internal/repo"
	"github.com/Skotchmaster/online_restaurant/pkg/hash"
	"github.com/Skotchmaster/online_restaurant/pkg/logging"
)

type AccountService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

func (s *AccountService) Register(ctx context.Context, nickname, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "account.register")

	nickname = strings.TrimSpace(nickname)
	email = strings.TrimSpace(email)
	switch {
	case nickname == "":
		return nil, fmt.Errorf("%w: nickname required", ErrValidation)
	case email == "" || !strings.Contains(email, "@"):
		return nil, fmt.Errorf("%w: valid email required", ErrValidation)
	case password == "":
		return nil, fmt.Errorf("%w: password required", ErrValidation)
	}

	pwHash, err := hash.HashPassword(password)
	if errors.Is(err, hash.ErrPasswordTooLong) {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Nickname:     nickname,
		Email:        email,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			return nil, fmt.Errorf("%w: user with this email or nickname already exists", ErrConflict)
		}
		return nil, err
	}

	publish(ctx, s.Events, events.TopicUsers, strconv.FormatUint(uint64(user.ID), 10),
		events.New("user_registered", map[string]any{"id": user.ID, "nickname": user.Nickname}))
	return user, nil
}

func (s *AccountService) Login(ctx context.Context, nickname, password string) (*models.User, error) {
	user, err := s.Repo.GetUserByNickname(ctx, strings.TrimSpace(nickname))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AccountService) Get(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AccountService) ListUsers(ctx context.Context, p Principal) ([]models.User, error) {
	if err := EnsureAdmin(p); err != nil {
		return nil, err
	}
	return s.Repo.ListUsers(ctx)
}

// SeedAdmin makes sure the configured administrator exists and holds the
// admin role.
func (s *AccountService) SeedAdmin(ctx context.Context, nickname, email, password string) (*models.User, error) {
	if nickname == "" || password == "" {
		return nil, fmt.Errorf("%w: admin nickname and password required", ErrValidation)
	}
	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{Nickname: nickname, Email: email, PasswordHash: pwHash}
	if err := s.Repo.EnsureAdmin(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
