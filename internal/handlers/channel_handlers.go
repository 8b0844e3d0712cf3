package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lizzietrust/chat-backend/internal/middleware"
	"github.com/lizzietrust/chat-backend/internal/service"
)

type ChannelHandler struct {
	channels *service.ChannelService
}

func NewChannelHandler(channels *service.ChannelService) *ChannelHandler {
	return &ChannelHandler{channels: channels}
}

func (h *ChannelHandler) Create(c *fiber.Ctx) error {
	var req service.CreateChannelInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	channel, err := h.channels.Create(c.Context(), middleware.UserID(c), req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"channel": channel})
}

func (h *ChannelHandler) Update(c *fiber.Ctx) error {
	var req struct {
		Name      string `json:"name"`
		IsPrivate bool   `json:"is_private"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	channel, err := h.channels.Update(c.Context(), c.Params("channelID"), middleware.UserID(c), req.Name, req.IsPrivate)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"channel": channel})
}

func (h *ChannelHandler) AddMember(c *fiber.Ctx) error {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id required"})
	}
	channel, err := h.channels.AddMember(c.Context(), c.Params("channelID"), middleware.UserID(c), req.UserID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"channel": channel})
}

func (h *ChannelHandler) RemoveMember(c *fiber.Ctx) error {
	channel, err := h.channels.RemoveMember(c.Context(), c.Params("channelID"), middleware.UserID(c), c.Params("userID"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"channel": channel})
}

func (h *ChannelHandler) SetAdmin(c *fiber.Ctx) error {
	var req struct {
		Admin bool `json:"admin"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	channel, err := h.channels.SetAdmin(c.Context(), c.Params("channelID"), middleware.UserID(c), c.Params("userID"), req.Admin)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"channel": channel})
}
