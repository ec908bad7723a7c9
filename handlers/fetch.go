package handlers

import (
	"net/http"
	"strings"

	"github.com/andesco/rephrase/pkg/rephraselib"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// FetchRequest is the body of POST /fetch.
type FetchRequest struct {
	URL string `json:"url"`
}

// FetchResponse carries the rewritten document back to the caller.
type FetchResponse struct {
	Success bool   `json:"success"`
	Content string `json:"content"`
}

// Fetch handles POST /fetch: fetch the requested page, rewrite it, and return
// the result as JSON. A missing url field is a 400; any fetch or rewrite
// failure is a 500.
func Fetch(r *rephraselib.Rephraser, log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req FetchRequest
		if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.URL) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "URL is required"})
		}

		body, _, err := r.ProcessRequest(req.URL, collectHeaders(c))
		if err != nil {
			log.Error().Err(err).Str("url", req.URL).Msg("fetch failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}

		return c.JSON(FetchResponse{Success: true, Content: string(body)})
	}
}

// collectHeaders converts the incoming fiber headers to an http.Header for the
// outbound request.
func collectHeaders(c *fiber.Ctx) http.Header {
	headers := make(http.Header)
	c.Request().Header.VisitAll(func(key, value []byte) {
		headers.Add(string(key), string(value))
	})
	return headers
}
