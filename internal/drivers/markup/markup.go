// Package markup provides the "html" and "markdown" loaders, which reduce
// marked-up documents to plain text.
//
// Both take a "part" parameter: "text" (default) yields the readable body,
// "title" yields the document title.
package markup

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/custodia-labs/datacat/internal/core/domain"
	"github.com/custodia-labs/datacat/internal/core/ports/driven"
	"github.com/custodia-labs/datacat/internal/drivers/handle"
)

// Ensure loaders implement the interface.
var (
	_ driven.LoaderDriver = (*HTML)(nil)
	_ driven.LoaderDriver = (*Markdown)(nil)
)

const (
	partText  = "text"
	partTitle = "title"
)

func part(t *domain.Transformer) (string, error) {
	if t == nil {
		return partText, nil
	}
	switch p := t.StringParam("part"); p {
	case "", partText:
		return partText, nil
	case partTitle:
		return partTitle, nil
	default:
		return "", fmt.Errorf("%w: %s part must be %q or %q, not %q", domain.ErrInvalidInput, t.Label(), partText, partTitle, p)
	}
}

// HTML extracts text from HTML documents.
type HTML struct{}

// NewHTML creates an HTML loader.
func NewHTML() *HTML { return &HTML{} }

// Name returns the driver tag.
func (l *HTML) Name() string { return "html" }

// InputTypes returns the readable handle types.
func (l *HTML) InputTypes() []domain.TypeTag { return handle.TextInputs() }

// OutputTypes returns core.string.
func (l *HTML) OutputTypes() []domain.TypeTag { return []domain.TypeTag{domain.TagString} }

// Load declines input without any tags. A document without a title
// produces the empty string for part = "title".
func (l *HTML) Load(_ context.Context, t *domain.Transformer, h any, _ domain.TypeTag) (domain.LoadResult, error) {
	p, err := part(t)
	if err != nil {
		return domain.LoadResult{}, err
	}
	b, err := handle.Bytes(h)
	if err != nil {
		return domain.LoadResult{}, err
	}
	doc := string(b)
	if !anyTag.MatchString(doc) {
		return domain.Decline(), nil
	}
	if p == partTitle {
		return domain.Produced(htmlTitle(doc)), nil
	}
	return domain.Produced(htmlText(doc)), nil
}

var (
	anyTag       = regexp.MustCompile(`<[a-zA-Z!/][^>]*>`)
	titleElement = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	h1Element    = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)
	dropElements = regexp.MustCompile(`(?is)<(script|style|noscript|head|svg)\b[^>]*>.*?</(script|style|noscript|head|svg)>`)
	comments     = regexp.MustCompile(`(?s)<!--.*?-->`)
	lineBreaks   = regexp.MustCompile(`(?i)</?(p|div|br|hr|h[1-6]|li|tr|blockquote|pre|table|section|article)(\s[^>]*)?/?>`)
	tags         = regexp.MustCompile(`<[^>]+>`)
	spaces       = regexp.MustCompile(`[ \t]+`)
)

func htmlTitle(doc string) string {
	for _, re := range []*regexp.Regexp{titleElement, h1Element} {
		if m := re.FindStringSubmatch(doc); m != nil {
			if title := strings.TrimSpace(html.UnescapeString(tags.ReplaceAllString(m[1], ""))); title != "" {
				return title
			}
		}
	}
	return ""
}

func htmlText(doc string) string {
	doc = dropElements.ReplaceAllString(doc, "")
	doc = comments.ReplaceAllString(doc, "")
	doc = lineBreaks.ReplaceAllString(doc, "\n")
	doc = tags.ReplaceAllString(doc, "")
	doc = html.UnescapeString(doc)
	doc = spaces.ReplaceAllString(doc, " ")
	return nonEmptyLines(doc)
}

func nonEmptyLines(s string) string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// Markdown extracts text from Markdown documents.
type Markdown struct{}

// NewMarkdown creates a Markdown loader.
func NewMarkdown() *Markdown { return &Markdown{} }

// Name returns the driver tag.
func (l *Markdown) Name() string { return "markdown" }

// InputTypes returns the readable handle types.
func (l *Markdown) InputTypes() []domain.TypeTag { return handle.TextInputs() }

// OutputTypes returns core.string.
func (l *Markdown) OutputTypes() []domain.TypeTag { return []domain.TypeTag{domain.TagString} }

// Load strips formatting. Fenced code blocks are dropped; link and image
// text is kept.
func (l *Markdown) Load(_ context.Context, t *domain.Transformer, h any, _ domain.TypeTag) (domain.LoadResult, error) {
	p, err := part(t)
	if err != nil {
		return domain.LoadResult{}, err
	}
	b, err := handle.Bytes(h)
	if err != nil {
		return domain.LoadResult{}, err
	}
	if p == partTitle {
		return domain.Produced(markdownTitle(string(b))), nil
	}
	return domain.Produced(markdownText(string(b))), nil
}

var (
	fences     = regexp.MustCompile("(?ms)^```.*?^```[^\n]*$")
	inlineCode = regexp.MustCompile("`([^`]+)`")
	images     = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	links      = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	headings   = regexp.MustCompile(`(?m)^[ \t]{0,3}#{1,6}[ \t]+`)
	quotes     = regexp.MustCompile(`(?m)^[ \t]*>[ \t]?`)
	rules      = regexp.MustCompile(`(?m)^[ \t]*([-*_][ \t]*){3,}$`)
	bullets    = regexp.MustCompile(`(?m)^[ \t]*([-*+]|\d+\.)[ \t]+`)
	h1Line     = regexp.MustCompile(`(?m)^#[ \t]+(.+)$`)
	manyBreaks = regexp.MustCompile(`\n{3,}`)

	// Strong before emphasis; underscores only at word edges.
	emphasis = []*regexp.Regexp{
		regexp.MustCompile(`\*\*([^*\n]+)\*\*`),
		regexp.MustCompile(`\b__([^_\n]+)__\b`),
		regexp.MustCompile(`\*([^*\n]+)\*`),
		regexp.MustCompile(`\b_([^_\n]+)_\b`),
	}
)

func markdownTitle(doc string) string {
	if m := h1Line.FindStringSubmatch(doc); m != nil {
		return strings.TrimSpace(strings.TrimRight(m[1], "# "))
	}
	return ""
}

func markdownText(doc string) string {
	doc = fences.ReplaceAllString(doc, "")
	doc = images.ReplaceAllString(doc, "$1")
	doc = links.ReplaceAllString(doc, "$1")
	doc = inlineCode.ReplaceAllString(doc, "$1")
	doc = rules.ReplaceAllString(doc, "")
	doc = headings.ReplaceAllString(doc, "")
	doc = quotes.ReplaceAllString(doc, "")
	doc = bullets.ReplaceAllString(doc, "")
	for _, re := range emphasis {
		doc = re.ReplaceAllString(doc, "$1")
	}
	doc = manyBreaks.ReplaceAllString(doc, "\n\n")
	return strings.TrimSpace(doc)
}
