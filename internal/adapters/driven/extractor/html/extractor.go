// Package html extracts titled, classified plain text from HTML pages.
package html

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/andybalholm/cascadia"
	"github.com/go-shiori/go-readability"
	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// DefaultMinContentLength is the shortest accepted text, in characters.
const DefaultMinContentLength = 100

// DefaultLanguage is used when a source does not declare one.
const DefaultLanguage = "sr"

// Extractor turns fetched HTML into an Extraction.
// It implements the driven.Extractor interface and is safe for concurrent use.
type Extractor struct {
	classifier       driven.Classifier
	minContentLength int
	readability      bool
	now              func() time.Time

	selectors sync.Map // string -> cascadia.SelectorGroup
}

var _ driven.Extractor = (*Extractor)(nil)

// Option configures the Extractor.
type Option func(*Extractor)

// WithMinContentLength sets the shortest accepted text.
func WithMinContentLength(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.minContentLength = n
		}
	}
}

// WithReadability enables or disables the readability fallback
// for pages without a content selector.
func WithReadability(enabled bool) Option {
	return func(e *Extractor) {
		e.readability = enabled
	}
}

// WithClock sets the time source used for the default year.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an Extractor that classifies with c.
func New(c driven.Classifier, opts ...Option) *Extractor {
	e := &Extractor{
		classifier:       c,
		minContentLength: DefaultMinContentLength,
		readability:      true,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract parses raw HTML and returns its title, text and classification.
// Text shorter than the minimum length is rejected with domain.ErrContentTooShort.
func (e *Extractor) Extract(raw []byte, pageURL string, source domain.Source) (*driven.Extraction, error) {
	root, err := xhtml.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, &domain.ExtractionError{URL: pageURL, Err: fmt.Errorf("parse html: %w", err)}
	}
	sel := source.Selectors

	title, err := e.title(root, sel.Title, pageURL)
	if err != nil {
		return nil, &domain.ExtractionError{URL: pageURL, Err: err}
	}

	for _, s := range sel.Exclude {
		group, err := e.compile(s)
		if err != nil {
			return nil, &domain.ExtractionError{URL: pageURL, Err: err}
		}
		removeNodes(cascadia.QueryAll(root, group))
	}
	removeNodes(findAll(root, func(n *xhtml.Node) bool { return junkElements[n.DataAtom] }))

	text, err := e.content(root, sel.Content, pageURL)
	if err != nil {
		return nil, &domain.ExtractionError{URL: pageURL, Err: err}
	}
	if n := utf8.RuneCountInString(text); n < e.minContentLength {
		return nil, &domain.ExtractionError{
			URL: pageURL,
			Err: fmt.Errorf("%w: %d characters, need %d", domain.ErrContentTooShort, n, e.minContentLength),
		}
	}

	year := firstYear(title)
	if year == 0 {
		year = firstYear(text)
	}
	if year == 0 {
		year = e.now().Year()
	}

	language := source.Language
	if language == "" {
		language = DefaultLanguage
	}

	classified := title + "\n\n" + text
	return &driven.Extraction{
		Title:        title,
		Text:         text,
		Category:     e.classifier.Category(classified, pageURL),
		DocumentType: e.classifier.DocumentType(classified, pageURL),
		Tags:         e.classifier.Tags(classified),
		Year:         year,
		LawReference: lawReference(text),
		RelevantFor:  e.classifier.RelevantFor(text),
		Language:     language,
	}, nil
}

// title tries the title selector, <title>, the first <h1>, then the URL.
func (e *Extractor) title(root *xhtml.Node, selector, pageURL string) (string, error) {
	if selector != "" {
		group, err := e.compile(selector)
		if err != nil {
			return "", err
		}
		if t := inlineText(cascadia.Query(root, group)); t != "" {
			return t, nil
		}
	}
	if t := inlineText(findFirst(root, atom.Title)); t != "" {
		return t, nil
	}
	if t := inlineText(findFirst(root, atom.H1)); t != "" {
		return t, nil
	}
	return titleFromURL(pageURL), nil
}

// content tries the content selector, readability, then the whole body.
func (e *Extractor) content(root *xhtml.Node, selector, pageURL string) (string, error) {
	if selector != "" {
		group, err := e.compile(selector)
		if err != nil {
			return "", err
		}
		var parts []string
		for _, n := range findAll(root, group.Match) {
			if t := textOf(n); t != "" {
				parts = append(parts, t)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "\n\n"), nil
		}
		logger.Debug("extract %s: content selector %q matched nothing", pageURL, selector)
	}

	if e.readability {
		if t := readableText(root, pageURL); t != "" {
			return t, nil
		}
	}

	body := findFirst(root, atom.Body)
	if body == nil {
		body = root
	}
	return textOf(body), nil
}

// readableText runs the readability algorithm over the cleaned document.
func readableText(root *xhtml.Node, pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || !u.IsAbs() {
		return ""
	}

	var buf bytes.Buffer
	if err := xhtml.Render(&buf, root); err != nil {
		return ""
	}
	article, err := readability.FromReader(&buf, u)
	if err != nil || strings.TrimSpace(article.Content) == "" {
		logger.Debug("extract %s: readability found no article", pageURL)
		return ""
	}

	doc, err := xhtml.Parse(strings.NewReader(article.Content))
	if err != nil {
		return ""
	}
	return textOf(doc)
}

func (e *Extractor) compile(selector string) (cascadia.SelectorGroup, error) {
	if cached, ok := e.selectors.Load(selector); ok {
		return cached.(cascadia.SelectorGroup), nil
	}
	group, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil, fmt.Errorf("%w: selector %q: %v", domain.ErrInvalidInput, selector, err)
	}
	e.selectors.Store(selector, group)
	return group, nil
}
