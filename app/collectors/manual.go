package collectors

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/akislov/book-comb/app/book"
)

// ManualCollector reads book entries from markdown files with YAML
// frontmatter. Serves as the migration path from a hand-maintained reading
// log.
type ManualCollector struct {
	booksDir string
}

func NewManualCollector(booksDir string) *ManualCollector {
	return &ManualCollector{booksDir: booksDir}
}

func (c *ManualCollector) Name() string {
	return "manual"
}

func (c *ManualCollector) Source() book.Source {
	return book.SourceManual
}

func (c *ManualCollector) Collect(ctx context.Context) ([]book.RawBook, error) {
	if _, err := os.Stat(c.booksDir); os.IsNotExist(err) {
		slog.Debug("Books directory does not exist, skipping manual collection", "dir", c.booksDir)
		return nil, nil
	}

	files, err := filepath.Glob(filepath.Join(c.booksDir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("failed to list markdown files: %w", err)
	}

	var books []book.RawBook
	for _, file := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		content, err := os.ReadFile(file)
		if err != nil {
			slog.Warn("Failed to read book file", "file", file, "error", err)
			continue
		}

		b, err := parseBookFile(string(content))
		if err != nil {
			slog.Warn("Failed to parse book file", "file", file, "error", err)
			continue
		}
		if b.Title == "" || b.Author == "" {
			slog.Warn("Skipping book file without title or author", "file", file)
			continue
		}

		books = append(books, b)
	}

	return books, nil
}

type frontmatter struct {
	Title         string   `yaml:"title"`
	Author        string   `yaml:"author"`
	CoverURL      string   `yaml:"coverUrl"`
	ISBN          string   `yaml:"isbn"`
	Status        string   `yaml:"status"`
	StartedDate   string   `yaml:"startedDate"`
	CompletedDate string   `yaml:"completedDate"`
	Rating        float64  `yaml:"rating"`
	Review        string   `yaml:"review"`
	Tags          []string `yaml:"tags"`
}

// parseBookFile extracts the YAML frontmatter between the leading --- fences.
func parseBookFile(content string) (book.RawBook, error) {
	trimmed := strings.TrimLeft(content, "\uFEFF\n\r ")
	if !strings.HasPrefix(trimmed, "---") {
		return book.RawBook{}, fmt.Errorf("no frontmatter found")
	}

	rest := trimmed[3:]
	end := strings.Index(rest, "\n---")
	if end == -1 {
		return book.RawBook{}, fmt.Errorf("unterminated frontmatter")
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(rest[:end]), &fm); err != nil {
		return book.RawBook{}, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	status := book.Status(fm.Status)
	if status == "" {
		status = book.StatusRead
	}

	return book.RawBook{
		Title:         fm.Title,
		Author:        fm.Author,
		CoverURL:      fm.CoverURL,
		ISBN:          fm.ISBN,
		Source:        book.SourceManual,
		Status:        status,
		StartedDate:   parseDate(fm.StartedDate),
		CompletedDate: parseDate(fm.CompletedDate),
		Rating:        fm.Rating,
		Review:        fm.Review,
		Tags:          fm.Tags,
	}, nil
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"Mon, 02 Jan 2006 15:04:05 -0700",
	"2006/01/02",
	"Jan 02, 2006",
}

// parseDate degrades to nil on any unparseable input; an absent date means
// "conservatively new" to the incremental watermark filter.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}

	return nil
}
