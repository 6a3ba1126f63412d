package collectors

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// ReviewExtractor pulls the readable body text out of a review page.
type ReviewExtractor struct {
	httpClient *http.Client
	userAgent  string
}

func NewReviewExtractor(httpClient *http.Client, userAgent string) *ReviewExtractor {
	return &ReviewExtractor{httpClient: httpClient, userAgent: userAgent}
}

func (e *ReviewExtractor) Extract(ctx context.Context, url string) (string, error) {
	data, err := fetch(ctx, e.httpClient, url, e.userAgent)
	if err != nil {
		return "", err
	}

	return ExtractReadableText(data)
}

// ExtractReadableText runs readability over raw HTML and returns the plain
// text content.
func ExtractReadableText(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("HTML data is empty")
	}

	article, err := readability.FromReader(strings.NewReader(string(data)), nil)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return "", fmt.Errorf("no content extracted from HTML data")
	}

	return text, nil
}
