package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/doctorai-app/backend/internal/apperrors"
	"github.com/doctorai-app/backend/internal/domain"
)

// ChatHandler serves chat transcript persistence.
type ChatHandler struct {
	router fiber.Router
	chats  domain.ChatService
}

func NewChatHandler(router fiber.Router, chats domain.ChatService) *ChatHandler {
	return &ChatHandler{router: router, chats: chats}
}

func (h *ChatHandler) Register() {
	h.router.Post("/chats", h.saveChat)
	h.router.Get("/chats/:user_id", h.getUserChats)
	h.router.Put("/chats/:chat_id/delete", h.deleteChat)
}

type saveChatRequest struct {
	UserID    string `json:"userId"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	IsDeleted bool   `json:"isDeleted"`
}

func (h *ChatHandler) saveChat(c *fiber.Ctx) error {
	var req saveChatRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.New(apperrors.KindInvalidInput, "invalid request body"))
	}
	if req.UserID == "" {
		return respondError(c, apperrors.New(apperrors.KindInvalidInput, "userId is required"))
	}

	chatID, err := h.chats.Save(c.UserContext(), &domain.ChatTurn{
		UserID:    req.UserID,
		Question:  req.Question,
		Answer:    req.Answer,
		IsDeleted: req.IsDeleted,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Chat saved successfully",
		"chatId":  chatID,
	})
}

func (h *ChatHandler) getUserChats(c *fiber.Ctx) error {
	includeDeleted := c.QueryBool("include_deleted", false)

	chats, err := h.chats.FindByUser(c.UserContext(), c.Params("user_id"), includeDeleted)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "chats": chats})
}

func (h *ChatHandler) deleteChat(c *fiber.Ctx) error {
	if err := h.chats.SoftDelete(c.UserContext(), c.Params("chat_id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "message": "Chat marked as deleted"})
}
