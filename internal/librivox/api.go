// Package librivox talks to the canonical record site: the per-id
// record API (stage 1), the single-author lookup, and the catalog page
// scraper (stage 2).
package librivox

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mkorpi/alexandria/internal/catalog"
	"github.com/mkorpi/alexandria/internal/config"
	apperrors "github.com/mkorpi/alexandria/internal/errors"
	"github.com/mkorpi/alexandria/internal/fetch"
)

// Client wraps the record API endpoints.
type Client struct {
	fetcher        *fetch.Client
	bookTemplate   string
	authorTemplate string
}

// NewClient creates an API client using the templates from settings.
func NewClient(fetcher *fetch.Client, settings *config.Settings) *Client {
	return &Client{
		fetcher:        fetcher,
		bookTemplate:   settings.BookAPITemplate,
		authorTemplate: settings.AuthorAPITemplate,
	}
}

// Book fetches the record for one numeric identifier. A "no record"
// response surfaces as a NotFoundError; anything else that goes wrong
// is a transport failure.
func (c *Client) Book(ctx context.Context, id int) (*catalog.Audiobook, error) {
	url := fmt.Sprintf(c.bookTemplate, id)
	body, err := c.fetcher.Text(ctx, url)
	if err != nil {
		return nil, err
	}

	var feed bookFeed
	if err := json.Unmarshal([]byte(body), &feed); err != nil {
		return nil, fmt.Errorf("failed to decode record %d: %w", id, err)
	}
	// The API reports missing records in-band, with a 200 status.
	if feed.Error != "" || len(feed.Books) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("%d", id))
	}
	return feed.Books[0].toAudiobook(), nil
}

// Author fetches a single author record by identifier.
func (c *Client) Author(ctx context.Context, id string) (catalog.Author, error) {
	numeric := strings.TrimSpace(id)
	url := fmt.Sprintf(c.authorTemplate, atoi(numeric))
	body, err := c.fetcher.Text(ctx, url)
	if err != nil {
		return catalog.Author{}, err
	}

	var feed authorFeed
	if err := json.Unmarshal([]byte(body), &feed); err != nil {
		return catalog.Author{}, fmt.Errorf("failed to decode author %s: %w", id, err)
	}
	if feed.Error != "" || len(feed.Authors) == 0 {
		return catalog.Author{}, apperrors.NewNotFoundError(id)
	}
	return feed.Authors[0].toAuthor(), nil
}
