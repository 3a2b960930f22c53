package server

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/doctorai-app/backend/internal/apperrors"
	"github.com/doctorai-app/backend/internal/domain"
)

// AnalysisHandler serves the combined analyze-and-chat endpoint. The
// conversation history is round-tripped through the client; no state is
// kept between requests.
type AnalysisHandler struct {
	router fiber.Router
	ai     domain.Analyzer
}

func NewAnalysisHandler(router fiber.Router, ai domain.Analyzer) *AnalysisHandler {
	return &AnalysisHandler{router: router, ai: ai}
}

func (h *AnalysisHandler) Register() {
	h.router.Post("/analyze_and_chat", h.analyzeAndChat)
}

func (h *AnalysisHandler) analyzeAndChat(c *fiber.Ctx) error {
	historyRaw := c.FormValue("chat_history")
	if historyRaw == "" {
		historyRaw = "[]"
	}

	var history []domain.ChatMessage
	if err := json.Unmarshal([]byte(historyRaw), &history); err != nil {
		return respondError(c, apperrors.New(apperrors.KindInvalidInput, "invalid chat_history format"))
	}
	if history == nil {
		history = []domain.ChatMessage{}
	}

	var diagnosis, reply *string

	if fileHeader, err := c.FormFile("file"); err == nil && fileHeader != nil {
		contentType := fileHeader.Header.Get("Content-Type")
		if strings.HasPrefix(contentType, "image/") {
			data, err := readUpload(fileHeader)
			if err != nil {
				return respondError(c, apperrors.Wrap(err, apperrors.KindInvalidInput, "failed to read uploaded file"))
			}

			text, err := h.ai.AnalyzeImage(c.UserContext(), data, contentType)
			if err != nil {
				return respondError(c, err)
			}
			diagnosis = &text
			history = append(history, domain.ChatMessage{Role: domain.RoleAssistant, Content: text})
		}
	}

	if query := c.FormValue("user_query"); query != "" {
		history = append(history, domain.ChatMessage{Role: domain.RoleUser, Content: query})

		text, err := h.ai.Chat(c.UserContext(), history)
		if err != nil {
			return respondError(c, err)
		}
		reply = &text
		history = append(history, domain.ChatMessage{Role: domain.RoleAssistant, Content: text})
	}

	return c.JSON(fiber.Map{
		"diagnosis":    diagnosis,
		"reply":        reply,
		"chat_history": history,
	})
}
