package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"

	"github.com/lizzietrust/chat-backend/internal/apperr"
	"github.com/lizzietrust/chat-backend/internal/models"
	"github.com/lizzietrust/chat-backend/internal/repository"
	"github.com/lizzietrust/chat-backend/internal/token"
)

type AuthService struct {
	users  UserRepo
	tokens *token.Manager
}

func NewAuthService(users UserRepo, tokens *token.Manager) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Register creates the account and returns the user plus a session token.
func (s *AuthService) Register(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(password) < 6 {
		return nil, "", fmt.Errorf("email and password (min 6 chars) required: %w", apperr.ErrBadRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{Email: email, Password: string(hash)}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, "", fmt.Errorf("%s: %w", email, apperr.ErrConflict)
		}
		return nil, "", err
	}

	t, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return nil, "", err
	}
	return u, t, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", apperr.ErrUnauthorized
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, "", apperr.ErrUnauthorized
	}

	t, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return nil, "", err
	}
	return u, t, nil
}

func (s *AuthService) UserInfo(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

type ProfileUpdate struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio"`
	Image     string `json:"image"`
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*models.User, error) {
	if upd.FirstName == "" || upd.LastName == "" {
		return nil, fmt.Errorf("first and last name required: %w", apperr.ErrBadRequest)
	}
	fields := bson.M{
		"first_name":    upd.FirstName,
		"last_name":     upd.LastName,
		"bio":           upd.Bio,
		"image":         upd.Image,
		"profile_setup": true,
	}
	u, err := s.users.UpdateProfile(ctx, userID, fields)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}
