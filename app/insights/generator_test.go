package insights

import (
	"strings"
	"testing"

	"github.com/akislov/book-comb/app/book"
)

func TestEnabled(t *testing.T) {
	if NewGenerator("", "gemini-1.5-flash").Enabled() {
		t.Error("Expected generator without API key to be disabled")
	}

	if !NewGenerator("test-key", "gemini-1.5-flash").Enabled() {
		t.Error("Expected generator with API key to be enabled")
	}
}

func TestBuildPrompt(t *testing.T) {
	library := book.Library{
		{
			RawBook: book.RawBook{Title: "Dune", Author: "Frank Herbert", Status: book.StatusRead, Rating: 5},
		},
		{
			RawBook: book.RawBook{Title: "Hyperion", Author: "Dan Simmons", Status: book.StatusWantToRead},
		},
		{
			RawBook: book.RawBook{Title: "Solaris", Author: "Stanislaw Lem", Status: book.StatusRead},
		},
	}

	prompt := buildPrompt(library)

	if !strings.Contains(prompt, "Dune by Frank Herbert (rated 5/5)") {
		t.Errorf("Expected prompt to contain rated read book, got: %s", prompt)
	}

	if !strings.Contains(prompt, "Solaris by Stanislaw Lem") {
		t.Errorf("Expected prompt to contain unrated read book, got: %s", prompt)
	}

	if strings.Contains(prompt, "Hyperion") {
		t.Error("Expected prompt to exclude books that are not read")
	}
}

func TestBuildPromptCapsBooks(t *testing.T) {
	library := make(book.Library, 0, maxPromptBooks+10)
	for i := 0; i < maxPromptBooks+10; i++ {
		library = append(library, book.NormalizedBook{
			RawBook: book.RawBook{Title: "Book", Author: "Author", Status: book.StatusRead},
		})
	}

	prompt := buildPrompt(library)

	lines := strings.Count(prompt, "- Book by Author")
	if lines != maxPromptBooks {
		t.Errorf("Expected %d books in prompt, got %d", maxPromptBooks, lines)
	}
}

func TestParseResponse(t *testing.T) {
	raw := `{"personality": "An avid sci-fi reader.", "recommendations": ["Blindsight by Peter Watts"], "observations": ["Rates classics highly"]}`

	insights, err := parseResponse(raw)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if insights.Personality != "An avid sci-fi reader." {
		t.Errorf("Expected personality to be set, got %q", insights.Personality)
	}

	if len(insights.Recommendations) != 1 || insights.Recommendations[0] != "Blindsight by Peter Watts" {
		t.Errorf("Expected one recommendation, got %v", insights.Recommendations)
	}
}

func TestParseResponseMarkdownFence(t *testing.T) {
	raw := "```json\n{\"personality\": \"Curious.\", \"recommendations\": [], \"observations\": []}\n```"

	insights, err := parseResponse(raw)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if insights.Personality != "Curious." {
		t.Errorf("Expected personality 'Curious.', got %q", insights.Personality)
	}
}

func TestParseResponseInvalid(t *testing.T) {
	if _, err := parseResponse("not json at all"); err == nil {
		t.Error("Expected error for invalid JSON response")
	}
}
