package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andesco/rephrase/pkg/rephraselib"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*fiber.App, *rephraselib.Rephraser) {
	t.Helper()
	r, err := rephraselib.NewRephraser("", zerolog.Nop())
	require.NoError(t, err)

	app := fiber.New()
	app.Post("/fetch", Fetch(r, zerolog.Nop()))
	app.Get("/proxy/*", Proxy(r, zerolog.Nop()))
	app.Get("/raw/*", Raw(r, zerolog.Nop()))
	app.Get("/api/*", API(r, "test", zerolog.Nop()))
	app.Get("/ruleset", Ruleset(r))
	return app, r
}

func newBackend(t *testing.T, html string) *httptest.Server {
	t.Helper()
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(html))
	}))
	t.Cleanup(backend.Close)
	return backend
}

func postFetch(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/fetch", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	return resp
}

func TestFetch_Success(t *testing.T) {
	backend := newBackend(t, `<html><body><p>cloud computing</p><a href="https://cloud.example.com">cloud link</a></body></html>`)
	app, _ := newTestApp(t)

	resp := postFetch(t, app, `{"url":"`+backend.URL+`"}`)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result FetchResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))

	assert.True(t, result.Success)
	assert.Contains(t, result.Content, "butt computing")
	assert.Contains(t, result.Content, "butt link")
	assert.Contains(t, result.Content, `href="https://cloud.example.com"`)
	assert.NotContains(t, result.Content, "cloud computing")
}

func TestFetch_MissingURL(t *testing.T) {
	app, _ := newTestApp(t)

	for _, body := range []string{`{}`, `{"url":""}`, `{"url":"   "}`, `not json`} {
		resp := postFetch(t, app, body)
		defer resp.Body.Close()

		require.Equal(t, http.StatusBadRequest, resp.StatusCode, "body %q", body)

		var payload map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
		assert.Equal(t, "URL is required", payload["error"])
	}
}

func TestFetch_MalformedURL(t *testing.T) {
	app, _ := newTestApp(t)

	resp := postFetch(t, app, `{"url":"not a url"}`)
	defer resp.Body.Close()

	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var payload map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Contains(t, payload["error"], "invalid URL")
}

func TestFetch_UnreachableHost(t *testing.T) {
	app, _ := newTestApp(t)

	resp := postFetch(t, app, `{"url":"http://localhost:1/"}`)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestFetch_BodyUnchangedWhenTermAbsent(t *testing.T) {
	backend := newBackend(t, `<html><body><p>nothing to see</p></body></html>`)
	app, _ := newTestApp(t)

	resp := postFetch(t, app, `{"url":"`+backend.URL+`"}`)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result FetchResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Contains(t, result.Content, "nothing to see")
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}
