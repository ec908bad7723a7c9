package rephraselib

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Attributes rewritten by default. Everything else, href and src included,
// carries machine-facing values and is left alone.
var defaultAttributes = []string{"title", "alt", "placeholder", "aria-label"}

// Elements whose text content never renders.
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"textarea": true,
	"iframe":   true,
}

// meta tags whose content attribute holds human-readable text.
var rewritableMeta = map[string]bool{
	"description":    true,
	"og:title":       true,
	"og:description": true,
}

// replacer applies one Rule to a parsed document.
type replacer struct {
	re    *regexp.Regexp
	to    string
	attrs map[string]bool
}

func newReplacer(rule Rule) (*replacer, error) {
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(rule.From) + `\b`)
	if err != nil {
		return nil, fmt.Errorf("error compiling matcher for term %q: %w", rule.From, err)
	}

	attributes := rule.Attributes
	if len(attributes) == 0 {
		attributes = defaultAttributes
	}
	attrs := make(map[string]bool, len(attributes))
	for _, a := range attributes {
		attrs[a] = true
	}

	return &replacer{re: re, to: rule.To, attrs: attrs}, nil
}

// RewriteHTML parses the document, substitutes every matching rule in visible
// text and human-readable attributes, and serializes the result. Markup that
// no rule touches round-trips unchanged.
func RewriteHTML(body []byte, rules RuleSet) (string, error) {
	if len(rules) == 0 {
		return string(body), nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("error parsing HTML: %w", err)
	}

	replacers := make([]*replacer, 0, len(rules))
	for _, rule := range rules {
		rp, err := newReplacer(rule)
		if err != nil {
			return "", err
		}
		replacers = append(replacers, rp)
	}

	for _, node := range doc.Selection.Nodes {
		for _, rp := range replacers {
			rp.walk(node)
		}
	}

	rewritten, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("error serializing HTML: %w", err)
	}
	return rewritten, nil
}

func (rp *replacer) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		n.Data = rp.rewriteText(n.Data)
		return
	case html.ElementNode:
		if skipElements[n.Data] {
			return
		}
		rp.rewriteAttributes(n)
	case html.CommentNode:
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rp.walk(c)
	}
}

func (rp *replacer) rewriteAttributes(n *html.Node) {
	isMeta := n.Data == "meta" && metaIsHumanReadable(n)
	for i, attr := range n.Attr {
		if rp.attrs[attr.Key] || (isMeta && attr.Key == "content") {
			n.Attr[i].Val = rp.rewriteText(attr.Val)
		}
	}
}

func metaIsHumanReadable(n *html.Node) bool {
	for _, attr := range n.Attr {
		if (attr.Key == "name" || attr.Key == "property") && rewritableMeta[strings.ToLower(attr.Val)] {
			return true
		}
	}
	return false
}

func (rp *replacer) rewriteText(s string) string {
	return rp.re.ReplaceAllStringFunc(s, func(match string) string {
		return matchCase(match, rp.to)
	})
}

// matchCase maps the case shape of the matched text onto the replacement:
// SHOUTED matches shout back, Capitalized matches stay capitalized, anything
// else uses the replacement verbatim.
func matchCase(match, to string) string {
	if utf8.RuneCountInString(match) > 1 && match == strings.ToUpper(match) && match != strings.ToLower(match) {
		return strings.ToUpper(to)
	}
	first, _ := utf8.DecodeRuneInString(match)
	if unicode.IsUpper(first) {
		return capitalize(to)
	}
	return to
}

func capitalize(s string) string {
	first, size := utf8.DecodeRuneInString(s)
	if first == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(first)) + s[size:]
}
