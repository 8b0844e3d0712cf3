package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lizzietrust/chat-backend/internal/middleware"
	"github.com/lizzietrust/chat-backend/internal/service"
)

type ChatHandler struct {
	chats *service.ChatService
}

func NewChatHandler(chats *service.ChatService) *ChatHandler {
	return &ChatHandler{chats: chats}
}

func (h *ChatHandler) CreateDirect(c *fiber.Ctx) error {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	chat, err := h.chats.CreateDirect(c.Context(), middleware.UserID(c), req.UserID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"chat": chat})
}

func (h *ChatHandler) List(c *fiber.Ctx) error {
	out, err := h.chats.List(c.Context(), middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"chats": out})
}

func (h *ChatHandler) History(c *fiber.Ctx) error {
	var before time.Time
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid before timestamp"})
		}
		before = t
	}
	msgs, err := h.chats.History(c.Context(), c.Params("chatID"), middleware.UserID(c), int64(c.QueryInt("limit")), before)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"messages": msgs})
}

func (h *ChatHandler) Recent(c *fiber.Ctx) error {
	msgs, err := h.chats.Recent(c.Context(), c.Params("chatID"), middleware.UserID(c), int64(c.QueryInt("limit")))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"messages": msgs})
}

func (h *ChatHandler) MarkRead(c *fiber.Ctx) error {
	n, err := h.chats.MarkRead(c.Context(), c.Params("chatID"), middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok", "updated": n})
}

func (h *ChatHandler) Clear(c *fiber.Ctx) error {
	n, err := h.chats.Clear(c.Context(), c.Params("chatID"), middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok", "deleted": n})
}
