package collectors

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/akislov/book-comb/app/book"
)

// Printable shelf view; paginates but renders without JavaScript.
const goodreadsShelfURL = "https://www.goodreads.com/review/list/%s?shelf=%s&print=true&page=%d"

const maxShelfPages = 10

// GoodreadsShelfCollector scrapes the printable shelf pages. Fallback for
// accounts whose RSS feeds are disabled or truncated; selectors follow the
// review table layout of the print view.
type GoodreadsShelfCollector struct {
	userID          string
	httpClient      *http.Client
	userAgent       string
	reviewExtractor *ReviewExtractor
}

func NewGoodreadsShelfCollector(userID string, httpClient *http.Client, userAgent string) *GoodreadsShelfCollector {
	return &GoodreadsShelfCollector{
		userID:          userID,
		httpClient:      httpClient,
		userAgent:       userAgent,
		reviewExtractor: NewReviewExtractor(httpClient, userAgent),
	}
}

func (c *GoodreadsShelfCollector) Name() string {
	return "goodreads-shelf"
}

func (c *GoodreadsShelfCollector) Source() book.Source {
	return book.SourceGoodreads
}

func (c *GoodreadsShelfCollector) Collect(ctx context.Context) ([]book.RawBook, error) {
	if c.userID == "" {
		return nil, nil
	}

	var books []book.RawBook
	for shelf, status := range goodreadsShelves {
		shelfBooks, err := c.collectShelf(ctx, shelf, status)
		if err != nil {
			slog.Warn("Failed to scrape Goodreads shelf", "shelf", shelf, "error", err)
			continue
		}
		books = append(books, shelfBooks...)
	}

	return books, nil
}

func (c *GoodreadsShelfCollector) collectShelf(ctx context.Context, shelf string, status book.Status) ([]book.RawBook, error) {
	var books []book.RawBook

	for page := 1; page <= maxShelfPages; page++ {
		url := fmt.Sprintf(goodreadsShelfURL, c.userID, shelf, page)

		data, err := fetch(ctx, c.httpClient, url, c.userAgent)
		if err != nil {
			return books, err
		}

		pageBooks, err := parseShelfPage(data, status)
		if err != nil {
			return books, err
		}
		if len(pageBooks) == 0 {
			break
		}

		c.attachReviews(ctx, pageBooks)
		books = append(books, pageBooks...)
	}

	return books, nil
}

// parseShelfPage extracts review rows from the printable shelf table.
func parseShelfPage(data []byte, status book.Status) ([]book.RawBook, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse shelf page: %w", err)
	}

	var books []book.RawBook
	doc.Find("tr.bookalike.review").Each(func(_ int, row *goquery.Selection) {
		title := strings.TrimSpace(row.Find("td.field.title a").First().Text())
		author := strings.TrimSpace(row.Find("td.field.author a").First().Text())
		if title == "" || author == "" {
			return
		}

		b := book.RawBook{
			Title:  title,
			Author: author,
			Source: book.SourceGoodreads,
			Status: status,
		}

		if cover, ok := row.Find("td.field.cover img").First().Attr("src"); ok {
			b.CoverURL = cover
		}

		isbn := strings.TrimSpace(row.Find("td.field.isbn .value").First().Text())
		if isbn != "" && isbn != "unknown" {
			b.ISBN = isbn
		}

		// Star widget encodes the user rating in its title attribute,
		// e.g. "it was amazing" = 5; the static value is more reliable.
		if rating, ok := row.Find("td.field.rating .staticStars").First().Attr("data-rating"); ok {
			if v, err := strconv.ParseFloat(rating, 64); err == nil {
				b.Rating = v
			}
		}

		if status == book.StatusRead {
			dateRead := strings.TrimSpace(row.Find("td.field.date_read .date_read_value").First().Text())
			b.CompletedDate = parseDate(dateRead)
		}

		if reviewLink, ok := row.Find("td.field.actions a[href*='/review/show/']").First().Attr("href"); ok {
			// Stashed for attachReviews; dropped before the record leaves
			// the collector.
			b.Review = reviewLink
		}

		books = append(books, b)
	})

	return books, nil
}

// attachReviews resolves stashed review links into full review text. Misses
// are silent; most books have no written review.
func (c *GoodreadsShelfCollector) attachReviews(ctx context.Context, books []book.RawBook) {
	for i := range books {
		link := books[i].Review
		books[i].Review = ""

		if link == "" || c.reviewExtractor == nil {
			continue
		}
		if !strings.HasPrefix(link, "http") {
			link = "https://www.goodreads.com" + link
		}

		review, err := c.reviewExtractor.Extract(ctx, link)
		if err != nil {
			slog.Debug("Review extraction failed", "url", link, "error", err)
			continue
		}
		books[i].Review = review
	}
}
