package collectors

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/akislov/book-comb/app/book"
)

// Goodreads exposes per-shelf RSS feeds that require no authentication:
// https://www.goodreads.com/review/list_rss/<user>?shelf=<shelf>
const goodreadsRSSURL = "https://www.goodreads.com/review/list_rss/%s?shelf=%s"

var goodreadsShelves = map[string]book.Status{
	"read":              book.StatusRead,
	"currently-reading": book.StatusCurrentlyReading,
	"to-read":           book.StatusWantToRead,
}

// GoodreadsRSSCollector fetches all reading shelves for one user.
type GoodreadsRSSCollector struct {
	userID     string
	httpClient *http.Client
	userAgent  string
	parser     *gofeed.Parser
}

func NewGoodreadsRSSCollector(userID string, httpClient *http.Client, userAgent string) *GoodreadsRSSCollector {
	return &GoodreadsRSSCollector{
		userID:     userID,
		httpClient: httpClient,
		userAgent:  userAgent,
		parser:     gofeed.NewParser(),
	}
}

func (c *GoodreadsRSSCollector) Name() string {
	return "goodreads-rss"
}

func (c *GoodreadsRSSCollector) Source() book.Source {
	return book.SourceGoodreads
}

func (c *GoodreadsRSSCollector) Collect(ctx context.Context) ([]book.RawBook, error) {
	if c.userID == "" {
		return nil, nil
	}

	var books []book.RawBook
	for shelf, status := range goodreadsShelves {
		url := fmt.Sprintf(goodreadsRSSURL, c.userID, shelf)

		data, err := fetch(ctx, c.httpClient, url, c.userAgent)
		if err != nil {
			slog.Warn("Failed to fetch Goodreads shelf feed", "shelf", shelf, "error", err)
			continue
		}

		feed, err := c.parser.Parse(bytes.NewReader(data))
		if err != nil {
			slog.Warn("Failed to parse Goodreads shelf feed", "shelf", shelf, "error", err)
			continue
		}

		shelfBooks := booksFromFeed(feed, status)
		slog.Debug("Collected Goodreads shelf", "shelf", shelf, "count", len(shelfBooks))
		books = append(books, shelfBooks...)
	}

	return books, nil
}

// booksFromFeed maps feed items to raw books. Goodreads carries book fields
// in non-standard item elements which gofeed surfaces through Custom.
func booksFromFeed(feed *gofeed.Feed, status book.Status) []book.RawBook {
	var books []book.RawBook

	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		author := strings.TrimSpace(custom(item, "author_name"))
		if title == "" || author == "" {
			continue
		}

		b := book.RawBook{
			Title:  title,
			Author: author,
			Source: book.SourceGoodreads,
			Status: status,
			ISBN:   strings.TrimSpace(custom(item, "isbn")),
			Review: strings.TrimSpace(custom(item, "user_review")),
		}

		if cover := custom(item, "book_large_image_url"); cover != "" {
			b.CoverURL = cover
		} else if cover := custom(item, "book_image_url"); cover != "" {
			b.CoverURL = cover
		}

		if rating := custom(item, "user_rating"); rating != "" {
			if v, err := strconv.ParseFloat(rating, 64); err == nil && v > 0 {
				b.Rating = v
			}
		}

		if status == book.StatusRead {
			b.CompletedDate = parseDate(custom(item, "user_read_at"))
			if b.CompletedDate == nil && item.PublishedParsed != nil {
				t := *item.PublishedParsed
				b.CompletedDate = &t
			}
		}

		if shelves := custom(item, "user_shelves"); shelves != "" {
			for _, tag := range strings.Split(shelves, ",") {
				if tag = strings.TrimSpace(tag); tag != "" {
					b.Tags = append(b.Tags, tag)
				}
			}
		}

		books = append(books, b)
	}

	return books
}

func custom(item *gofeed.Item, key string) string {
	if item.Custom == nil {
		return ""
	}
	return item.Custom[key]
}
