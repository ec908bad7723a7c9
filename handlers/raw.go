package handlers

import (
	"github.com/andesco/rephrase/pkg/rephraselib"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// Raw handles GET /raw/*: fetch the target without rewriting, for comparing a
// page against its rephrased version.
func Raw(r *rephraselib.Rephraser, log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		targetURL, err := extractURL(c)
		if err != nil {
			log.Error().Err(err).Msg("could not extract URL")
			return c.Status(fiber.StatusBadRequest).SendString("Could not extract URL")
		}

		body, respHeaders, _, err := r.Fetch(targetURL, collectHeaders(c))
		if err != nil {
			log.Error().Err(err).Str("url", targetURL).Msg("raw fetch failed")
			return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
		}

		c.Set("Content-Type", respHeaders.Get("Content-Type"))
		return c.Send(body)
	}
}
