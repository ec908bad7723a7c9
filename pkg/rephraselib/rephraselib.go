package rephraselib

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrInvalidURL marks a target that is not a syntactically valid absolute
// http(s) URL.
var ErrInvalidURL = errors.New("invalid URL")

// Rephraser fetches remote pages and rewrites configured terms in their
// visible text. It holds no per-request state and is safe for concurrent use.
type Rephraser struct {
	UserAgent      string
	ForwardedFor   string
	Rules          RuleSet
	AllowedDomains []string
	Timeout        int

	client *http.Client
	log    zerolog.Logger
}

// NewRephraser loads the ruleset and builds a Rephraser configured from the
// environment. With no ruleset, a single rule is taken from the SOURCE_TERM
// and TARGET_TERM variables.
func NewRephraser(rulesetPath string, log zerolog.Logger) (*Rephraser, error) {
	rules, err := LoadRuleset(rulesetPath)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		rules = RuleSet{{
			From: getenv("SOURCE_TERM", "cloud"),
			To:   getenv("TARGET_TERM", "butt"),
		}}
		if err := rules.Validate(); err != nil {
			return nil, err
		}
	}
	log.Info().Int("rules", rules.Count()).Int("domains", len(rules.Domains())).Msg("loaded ruleset")

	var allowedDomains []string
	for _, domain := range strings.Split(os.Getenv("ALLOWED_DOMAINS"), ",") {
		if domain = strings.TrimSpace(domain); domain != "" {
			allowedDomains = append(allowedDomains, domain)
		}
	}

	timeout := 15
	if timeoutStr := os.Getenv("HTTP_TIMEOUT"); timeoutStr != "" {
		timeout, _ = strconv.Atoi(timeoutStr)
	}

	return &Rephraser{
		UserAgent:      getenv("USER_AGENT", "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"),
		ForwardedFor:   getenv("X_FORWARDED_FOR", "66.249.66.1"),
		Rules:          rules,
		AllowedDomains: allowedDomains,
		Timeout:        timeout,
		client:         &http.Client{Timeout: time.Second * time.Duration(timeout)},
		log:            log,
	}, nil
}

// ProcessRequest fetches the target URL and returns the rewritten body along
// with the upstream response headers.
func (r *Rephraser) ProcessRequest(targetURL string, requestHeader http.Header) ([]byte, http.Header, error) {
	body, respHeader, u, err := r.Fetch(targetURL, requestHeader)
	if err != nil {
		return nil, nil, err
	}

	rewritten, err := RewriteHTML(body, r.Rules.For(u.Host))
	if err != nil {
		return nil, nil, err
	}

	return []byte(rewritten), respHeader, nil
}

// Fetch retrieves the raw body of the target URL without rewriting. The
// returned error wraps ErrInvalidURL when the target is not an absolute
// http(s) URL.
func (r *Rephraser) Fetch(targetURL string, requestHeader http.Header) ([]byte, http.Header, *url.URL, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: error parsing '%s': %v", ErrInvalidURL, targetURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, nil, nil, fmt.Errorf("%w: not an absolute http(s) URL: '%s'", ErrInvalidURL, targetURL)
	}

	if len(r.AllowedDomains) > 0 && !stringInSlice(u.Host, r.AllowedDomains) {
		return nil, nil, nil, fmt.Errorf("domain not allowed: %s", u.Host)
	}

	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error building request: %w", err)
	}

	req.Header.Set("User-Agent", r.UserAgent)
	req.Header.Set("X-Forwarded-For", r.ForwardedFor)
	if incomingReferer := requestHeader.Get("Referer"); incomingReferer != "" {
		req.Header.Set("Referer", incomingReferer)
	} else {
		req.Header.Set("Referer", u.String())
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error fetching site: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error reading response body: %w", err)
	}

	r.log.Debug().Str("url", u.String()).Int("status", resp.StatusCode).Int("bytes", len(bodyBytes)).Msg("fetched")
	return bodyBytes, resp.Header, u, nil
}

func getenv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func stringInSlice(s string, list []string) bool {
	for _, x := range list {
		if s == x || strings.HasSuffix(s, "."+x) {
			return true
		}
	}
	return false
}
