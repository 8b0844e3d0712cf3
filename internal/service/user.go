package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/lizzietrust/chat-backend/internal/apperr"
	"github.com/lizzietrust/chat-backend/internal/models"
)

type UserService struct {
	users UserRepo
}

func NewUserService(users UserRepo) *UserService {
	return &UserService{users: users}
}

// List returns everyone except the caller, for the contact picker.
func (s *UserService) List(ctx context.Context, callerID string) ([]*models.User, error) {
	return s.users.List(ctx, callerID)
}

func (s *UserService) Search(ctx context.Context, callerID, query string) ([]*models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query required: %w", apperr.ErrBadRequest)
	}
	return s.users.Search(ctx, callerID, query)
}
