package handlers

import (
	"os"

	"github.com/andesco/rephrase/pkg/rephraselib"

	"github.com/gofiber/fiber/v2"
	"gopkg.in/yaml.v3"
)

// Ruleset handles GET /ruleset: the active rewrite rules as YAML. Set
// EXPOSE_RULESET=false to disable.
func Ruleset(r *rephraselib.Rephraser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if os.Getenv("EXPOSE_RULESET") == "false" {
			return c.Status(fiber.StatusForbidden).SendString("Ruleset Disabled")
		}

		body, err := yaml.Marshal(r.Rules)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
		}

		c.Set("Content-Type", "application/x-yaml")
		return c.Send(body)
	}
}
