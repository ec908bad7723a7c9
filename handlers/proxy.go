package handlers

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/andesco/rephrase/pkg/rephraselib"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// Proxy handles GET /proxy/*: the wildcard holds the target URL, and the
// rewritten page is returned as-is so it renders in a browser.
func Proxy(r *rephraselib.Rephraser, log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		targetURL, err := extractURL(c)
		if err != nil {
			log.Error().Err(err).Msg("could not extract URL")
			return c.Status(fiber.StatusBadRequest).SendString("Could not extract URL")
		}

		body, respHeaders, err := r.ProcessRequest(targetURL, collectHeaders(c))
		if err != nil {
			log.Error().Err(err).Str("url", targetURL).Msg("proxy failed")
			return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
		}

		c.Set("Content-Type", respHeaders.Get("Content-Type"))
		c.Set("Content-Security-Policy", respHeaders.Get("Content-Security-Policy"))

		return c.Send(body)
	}
}

// extractURL pulls the target URL from the wildcard path. A relative path is
// resolved against the target encoded in the Referer, so assets requested by
// a proxied page come back through the proxy.
func extractURL(c *fiber.Ctx) (string, error) {
	path, err := url.QueryUnescape(c.Params("*"))
	if err != nil {
		path = c.Params("*")
	}

	urlQuery, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("error parsing request path '%s': %w", path, err)
	}

	if urlQuery.Scheme == "http" || urlQuery.Scheme == "https" {
		return path, nil
	}

	refererHeader := c.Get("Referer")
	if refererHeader == "" {
		return "", fmt.Errorf("cannot resolve relative path without a referer: %s", path)
	}

	refererURL, err := url.Parse(refererHeader)
	if err != nil {
		return "", fmt.Errorf("error parsing referer URL '%s': %w", refererHeader, err)
	}

	// The real target site rides in the referer's path, after our route prefix.
	refererPath := strings.TrimPrefix(refererURL.Path, "/")
	for _, prefix := range []string{"proxy/", "raw/", "api/"} {
		refererPath = strings.TrimPrefix(refererPath, prefix)
	}
	realTarget, err := url.Parse(refererPath)
	if err != nil {
		return "", fmt.Errorf("error parsing real target from referer path '%s': %w", refererURL.Path, err)
	}

	fullURL := &url.URL{
		Scheme:   realTarget.Scheme,
		Host:     realTarget.Host,
		Path:     urlQuery.Path,
		RawQuery: string(c.Request().URI().QueryString()),
	}

	return fullURL.String(), nil
}
