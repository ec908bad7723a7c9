package handlers

import (
	"github.com/andesco/rephrase/pkg/rephraselib"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// APIResponse wraps a rewritten page with fetch metadata for programmatic
// callers.
type APIResponse struct {
	Version  string `json:"version"`
	URL      string `json:"url"`
	Body     string `json:"body"`
	Response struct {
		Headers []HeaderKV `json:"headers"`
	} `json:"response"`
}

type HeaderKV struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// API handles GET /api/*: fetch, rewrite, and return the result along with
// the upstream response headers as JSON.
func API(r *rephraselib.Rephraser, version string, log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		targetURL, err := extractURL(c)
		if err != nil {
			log.Error().Err(err).Msg("could not extract URL")
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Could not extract URL"})
		}

		body, respHeaders, err := r.ProcessRequest(targetURL, collectHeaders(c))
		if err != nil {
			log.Error().Err(err).Str("url", targetURL).Msg("api fetch failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}

		response := APIResponse{
			Version: version,
			URL:     targetURL,
			Body:    string(body),
		}
		response.Response.Headers = make([]HeaderKV, 0, len(respHeaders))
		for key, values := range respHeaders {
			response.Response.Headers = append(response.Response.Headers, HeaderKV{Key: key, Value: values[0]})
		}

		return c.JSON(response)
	}
}
