package feed

import (
	"crypto/sha256"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"github.com/pders01/kiroku/internal/storage"
)

const maxSummary = 280

type Parser struct {
	parser *gofeed.Parser
	strict *bluemonday.Policy
}

func NewParser() *Parser {
	return &Parser{
		parser: gofeed.NewParser(),
		strict: bluemonday.StrictPolicy(),
	}
}

// Parse reads a feed document and returns its title and headlines.
func (p *Parser) Parse(reader io.Reader, sourceURL string) (string, []*storage.Headline, error) {
	feed, err := p.parser.Parse(reader)
	if err != nil {
		return "", nil, fmt.Errorf("parsing feed: %w", err)
	}

	headlines := make([]*storage.Headline, 0, len(feed.Items))
	for _, item := range feed.Items {
		h := &storage.Headline{
			ID:        headlineID(sourceURL, item),
			SourceURL: sourceURL,
			Title:     strings.TrimSpace(item.Title),
			URL:       item.Link,
			Summary:   p.summary(item),
		}
		switch {
		case item.PublishedParsed != nil:
			h.Published = *item.PublishedParsed
		case item.UpdatedParsed != nil:
			h.Published = *item.UpdatedParsed
		}
		headlines = append(headlines, h)
	}

	return strings.TrimSpace(feed.Title), headlines, nil
}

func (p *Parser) summary(item *gofeed.Item) string {
	text := item.Description
	if text == "" {
		text = item.Content
	}
	text = html.UnescapeString(p.strict.Sanitize(text))
	text = strings.Join(strings.Fields(text), " ")
	if r := []rune(text); len(r) > maxSummary {
		text = string(r[:maxSummary-1]) + "…"
	}
	return text
}

// headlineID is stable across refreshes so that replacing a source's
// headlines does not reorder unchanged items.
func headlineID(sourceURL string, item *gofeed.Item) string {
	key := item.GUID
	if key == "" {
		key = item.Link
	}
	if key == "" {
		key = item.Title
	}
	return fmt.Sprintf("%x", sha256.Sum256([]byte(sourceURL+"\x00"+key)))
}
