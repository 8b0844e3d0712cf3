package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lizzietrust/chat-backend/internal/middleware"
	"github.com/lizzietrust/chat-backend/internal/service"
)

type MessageHandler struct {
	messages *service.MessageService
}

func NewMessageHandler(messages *service.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

func (h *MessageHandler) Send(c *fiber.Ctx) error {
	var req service.SendInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	req.SenderID = middleware.UserID(c)
	m, err := h.messages.Send(c.Context(), req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": m})
}

func (h *MessageHandler) MarkDelivered(c *fiber.Ctx) error {
	m, err := h.messages.MarkDelivered(c.Context(), c.Params("messageID"), middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": m})
}

func (h *MessageHandler) MarkRead(c *fiber.Ctx) error {
	m, err := h.messages.MarkRead(c.Context(), c.Params("messageID"), middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": m})
}

func (h *MessageHandler) Edit(c *fiber.Ctx) error {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	m, err := h.messages.Edit(c.Context(), c.Params("messageID"), middleware.UserID(c), req.Content)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": m})
}

func (h *MessageHandler) Delete(c *fiber.Ctx) error {
	forEveryone := c.Query("scope", "me") == "everyone"
	m, err := h.messages.Delete(c.Context(), c.Params("messageID"), middleware.UserID(c), forEveryone)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": m})
}
