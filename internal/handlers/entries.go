package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mimosa-app/mimosa/internal/models"
	"github.com/mimosa-app/mimosa/internal/services"
)

// EntriesHandler exposes diary CRUD and the date-windowed queries.
type EntriesHandler struct {
	diary *services.DiaryService
}

// NewEntriesHandler creates a new entries handler.
func NewEntriesHandler(diary *services.DiaryService) *EntriesHandler {
	return &EntriesHandler{diary: diary}
}

// Create saves one diary entry and returns its assigned id.
func (h *EntriesHandler) Create(c *fiber.Ctx) error {
	var req models.CreateEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	timestamp := time.Now()
	if req.Timestamp != "" {
		ts, err := models.ParseTimestamp(req.Timestamp)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid timestamp",
			})
		}
		timestamp = ts
	}

	entry := models.DiaryEntry{
		Timestamp: timestamp,
		Content:   req.Content,
		Response:  req.Response,
	}
	entry.SetImagePaths(req.ImagePaths)
	entry.SetFilePaths(req.FilePaths)

	entryID := h.diary.AddEntry(entry)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"entry_id": entryID})
}

// List returns all entries sorted ascending by timestamp, or the search
// results when a keyword query parameter is present.
func (h *EntriesHandler) List(c *fiber.Ctx) error {
	if keyword := c.Query("keyword"); keyword != "" {
		return c.JSON(h.diary.SearchEntries(keyword))
	}
	return c.JSON(h.diary.GetAllEntries())
}

// Range returns the entries between the start and end query parameters,
// bounds inclusive.
func (h *EntriesHandler) Range(c *fiber.Ctx) error {
	start, err := models.ParseTimestamp(c.Query("start"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid start timestamp",
		})
	}
	end, err := models.ParseTimestamp(c.Query("end"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid end timestamp",
		})
	}
	return c.JSON(h.diary.GetEntriesByDateRange(start, end))
}

// Daily returns the entries of the given date's calendar day.
func (h *EntriesHandler) Daily(c *fiber.Ctx) error {
	return h.window(c, h.diary.GetDailyEntries)
}

// Weekly returns the entries of the ISO week containing the given date.
func (h *EntriesHandler) Weekly(c *fiber.Ctx) error {
	return h.window(c, h.diary.GetWeeklyEntries)
}

// Monthly returns the entries of the calendar month containing the given
// date.
func (h *EntriesHandler) Monthly(c *fiber.Ctx) error {
	return h.window(c, h.diary.GetMonthlyEntries)
}

func (h *EntriesHandler) window(c *fiber.Ctx, query func(time.Time) []models.DiaryEntry) error {
	date := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid date",
			})
		}
		date = parsed
	}
	return c.JSON(query(date))
}

// Update replaces the entry under the given id.
func (h *EntriesHandler) Update(c *fiber.Ctx) error {
	var entry models.DiaryEntry
	if err := c.BodyParser(&entry); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if !h.diary.UpdateEntry(c.Params("id"), entry) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Entry not found",
		})
	}
	return c.JSON(fiber.Map{"success": true})
}

// Delete removes the entry under the given id.
func (h *EntriesHandler) Delete(c *fiber.Ctx) error {
	if !h.diary.DeleteEntry(c.Params("id")) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Entry not found",
		})
	}
	return c.JSON(fiber.Map{"success": true})
}

// parseDate accepts a bare calendar date or a full timestamp.
func parseDate(raw string) (time.Time, error) {
	if ts, err := time.ParseInLocation("2006-01-02", raw, time.Local); err == nil {
		return ts, nil
	}
	return models.ParseTimestamp(raw)
}
