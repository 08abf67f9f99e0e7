package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mimosa-app/mimosa/internal/models"
	"github.com/mimosa-app/mimosa/internal/services"
)

// ChatHandler exposes the responder over the local API the UI shell calls.
type ChatHandler struct {
	responder *services.ResponderService
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(responder *services.ResponderService) *ChatHandler {
	return &ChatHandler{responder: responder}
}

// Chat handles one user turn and always answers 200 with reply text: a
// real model reply, the canned blank-input prompt, or the localized
// fallback. Remote failures never surface as HTTP errors.
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	var req models.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	reply := h.responder.GetResponse(c.UserContext(), req.Message, req.Images, req.InputLanguage, req.OutputLanguage)
	return c.JSON(models.ChatResponse{Reply: reply})
}

// Reset discards the running conversation and starts a fresh session.
func (h *ChatHandler) Reset(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": h.responder.ResetConversation()})
}

// Followups suggests 1-2 open-ended questions from the recent turns.
func (h *ChatHandler) Followups(c *fiber.Ctx) error {
	var req models.FollowupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	questions := h.responder.SuggestFollowupQuestions(c.UserContext(), req.History, req.Language)
	return c.JSON(models.FollowupResponse{Questions: questions})
}

// Emotion returns an emotional analysis of the given text, or 204 when no
// analysis was produced.
func (h *ChatHandler) Emotion(c *fiber.Ctx) error {
	var req models.EmotionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	analysis, ok := h.responder.AnalyzeEmotion(c.UserContext(), req.Text, req.Language)
	if !ok {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(models.EmotionResponse{Analysis: analysis})
}
