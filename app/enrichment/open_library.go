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

// OpenLibraryEnricher looks books up through the Open Library search API.
// The public API asks clients to stay around 1 req/s; the limiter enforces
// that across the whole enrichment pass.
type OpenLibraryEnricher struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	coversURL  string
	limiter    *rate.Limiter
}

func NewOpenLibraryEnricher(httpClient *http.Client, userAgent string) *OpenLibraryEnricher {
	return &OpenLibraryEnricher{
		httpClient: httpClient,
		userAgent:  userAgent,
		baseURL:    "https://openlibrary.org",
		coversURL:  "https://covers.openlibrary.org",
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

func (e *OpenLibraryEnricher) Name() string {
	return "openlibrary"
}

type openLibrarySearchResponse struct {
	NumFound int `json:"numFound"`
	Docs     []struct {
		Title            string   `json:"title"`
		AuthorNames      []string `json:"author_name"`
		ISBN             []string `json:"isbn"`
		CoverID          int      `json:"cover_i"`
		NumberOfPagesMed int      `json:"number_of_pages_median"`
		Subjects         []string `json:"subject"`
		FirstSentence    []string `json:"first_sentence"`
	} `json:"docs"`
}

func (e *OpenLibraryEnricher) Enrich(ctx context.Context, b book.NormalizedBook) (*Enrichment, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("title", b.Title)
	query.Set("author", b.Author)
	query.Set("limit", "1")

	searchURL := fmt.Sprintf("%s/search.json?%s", e.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query Open Library: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	var result openLibrarySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode Open Library response: %w", err)
	}

	if result.NumFound == 0 || len(result.Docs) == 0 {
		return nil, nil
	}

	doc := result.Docs[0]
	enrichment := &Enrichment{
		PageCount: doc.NumberOfPagesMed,
	}

	if len(doc.ISBN) > 0 {
		enrichment.ISBN = doc.ISBN[0]
	}
	if doc.CoverID > 0 {
		enrichment.CoverURL = fmt.Sprintf("%s/b/id/%d-L.jpg", e.coversURL, doc.CoverID)
	}
	if len(doc.Subjects) > 0 {
		limit := len(doc.Subjects)
		if limit > 5 {
			limit = 5
		}
		enrichment.Subjects = doc.Subjects[:limit]
	}
	if len(doc.FirstSentence) > 0 {
		enrichment.Description = doc.FirstSentence[0]
	}

	return enrichment, nil
}
