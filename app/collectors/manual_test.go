package collectors

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/akislov/book-comb/app/book"
)

func writeBookFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write book file: %v", err)
	}
}

func TestManualCollector_Collect(t *testing.T) {
	dir := t.TempDir()

	writeBookFile(t, dir, "dune.md", `---
title: Dune
author: Frank Herbert
status: read
completedDate: "2021-06-01"
rating: 5
tags:
  - sci-fi
  - classic
---

Notes on the book.
`)

	writeBookFile(t, dir, "dispossessed.md", `---
title: The Dispossessed
author: "Le Guin, Ursula K."
status: currently-reading
startedDate: "2024-02-10"
---
`)

	collector := NewManualCollector(dir)
	books, err := collector.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if len(books) != 2 {
		t.Fatalf("Expected 2 books, got %d", len(books))
	}

	var dune book.RawBook
	for _, b := range books {
		if b.Title == "Dune" {
			dune = b
		}
	}

	if dune.Author != "Frank Herbert" {
		t.Errorf("Expected author 'Frank Herbert', got %q", dune.Author)
	}
	if dune.Source != book.SourceManual {
		t.Errorf("Expected source manual, got %q", dune.Source)
	}
	if dune.Status != book.StatusRead {
		t.Errorf("Expected status read, got %q", dune.Status)
	}
	if dune.Rating != 5 {
		t.Errorf("Expected rating 5, got %v", dune.Rating)
	}
	if dune.CompletedDate == nil || dune.CompletedDate.Format("2006-01-02") != "2021-06-01" {
		t.Errorf("Expected completedDate 2021-06-01, got %v", dune.CompletedDate)
	}
	if len(dune.Tags) != 2 {
		t.Errorf("Expected 2 tags, got %v", dune.Tags)
	}
}

func TestManualCollector_SkipsIncompleteEntries(t *testing.T) {
	dir := t.TempDir()

	writeBookFile(t, dir, "no-author.md", `---
title: Orphaned Entry
---
`)
	writeBookFile(t, dir, "not-frontmatter.md", "# Just a heading\n")
	writeBookFile(t, dir, "ok.md", `---
title: Foundation
author: Isaac Asimov
---
`)

	collector := NewManualCollector(dir)
	books, err := collector.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if len(books) != 1 {
		t.Fatalf("Expected 1 valid book, got %d", len(books))
	}
	if books[0].Title != "Foundation" {
		t.Errorf("Expected Foundation, got %q", books[0].Title)
	}
}

func TestManualCollector_MissingDirIsEmpty(t *testing.T) {
	collector := NewManualCollector(filepath.Join(t.TempDir(), "does-not-exist"))

	books, err := collector.Collect(context.Background())
	if err != nil {
		t.Fatalf("Expected missing directory to be non-fatal: %v", err)
	}
	if len(books) != 0 {
		t.Errorf("Expected no books, got %d", len(books))
	}
}

func TestParseBookFile_DefaultStatus(t *testing.T) {
	b, err := parseBookFile(`---
title: Hyperion
author: Dan Simmons
---
`)
	if err != nil {
		t.Fatalf("parseBookFile failed: %v", err)
	}
	if b.Status != book.StatusRead {
		t.Errorf("Expected default status read, got %q", b.Status)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		want  string // empty means nil expected
	}{
		{"2021-06-01", "2021-06-01"},
		{"2021-06-01T10:30:00Z", "2021-06-01"},
		{"Tue, 01 Jun 2021 10:30:00 -0700", "2021-06-01"},
		{"not a date", ""},
		{"", ""},
	}

	for _, tt := range tests {
		got := parseDate(tt.input)
		if tt.want == "" {
			if got != nil {
				t.Errorf("parseDate(%q) = %v, expected nil", tt.input, got)
			}
			continue
		}
		if got == nil || got.Format("2006-01-02") != tt.want {
			t.Errorf("parseDate(%q) = %v, expected %s", tt.input, got, tt.want)
		}
	}
}
