package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lizzietrust/chat-backend/internal/middleware"
	"github.com/lizzietrust/chat-backend/internal/service"
)

type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	out, err := h.users.List(c.Context(), middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"users": out})
}

func (h *UserHandler) Search(c *fiber.Ctx) error {
	out, err := h.users.Search(c.Context(), middleware.UserID(c), c.Query("q"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"users": out})
}
