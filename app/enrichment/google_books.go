package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/akislov/book-comb/app/book"
)

// GoogleBooksEnricher queries the public volumes API. Often has better
// descriptions and page counts than Open Library.
type GoogleBooksEnricher struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	limiter    *rate.Limiter
}

func NewGoogleBooksEnricher(httpClient *http.Client, userAgent string) *GoogleBooksEnricher {
	return &GoogleBooksEnricher{
		httpClient: httpClient,
		userAgent:  userAgent,
		baseURL:    "https://www.googleapis.com/books/v1",
		limiter:    rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
	}
}

func (e *GoogleBooksEnricher) Name() string {
	return "googlebooks"
}

type googleBooksResponse struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo struct {
			Title               string   `json:"title"`
			Authors             []string `json:"authors"`
			Description         string   `json:"description"`
			PageCount           int      `json:"pageCount"`
			Categories          []string `json:"categories"`
			IndustryIdentifiers []struct {
				Type       string `json:"type"`
				Identifier string `json:"identifier"`
			} `json:"industryIdentifiers"`
			ImageLinks struct {
				Thumbnail string `json:"thumbnail"`
			} `json:"imageLinks"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

func (e *GoogleBooksEnricher) Enrich(ctx context.Context, b book.NormalizedBook) (*Enrichment, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("q", fmt.Sprintf("intitle:%s+inauthor:%s", b.Title, b.Author))
	query.Set("maxResults", "1")

	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/volumes?%s", e.baseURL, query.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query Google Books: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	var result googleBooksResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode Google Books response: %w", err)
	}

	if result.TotalItems == 0 || len(result.Items) == 0 {
		return nil, nil
	}

	info := result.Items[0].VolumeInfo
	enrichment := &Enrichment{
		Description: info.Description,
		PageCount:   info.PageCount,
		CoverURL:    info.ImageLinks.Thumbnail,
		Subjects:    info.Categories,
	}

	for _, id := range info.IndustryIdentifiers {
		if id.Type == "ISBN_13" {
			enrichment.ISBN = id.Identifier
			break
		}
		if id.Type == "ISBN_10" && enrichment.ISBN == "" {
			enrichment.ISBN = id.Identifier
		}
	}

	return enrichment, nil
}
