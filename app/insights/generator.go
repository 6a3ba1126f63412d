package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/akislov/book-comb/app/book"
)

// Insights is the generated reading-profile document.
type Insights struct {
	Personality     string    `json:"personality"`
	Recommendations []string  `json:"recommendations"`
	Observations    []string  `json:"observations"`
	GeneratedAt     time.Time `json:"generatedAt"`
}

// Generator produces reading insights with Gemini. Purely additive: callers
// treat any error as "no insights this run".
type Generator struct {
	apiKey string
	model  string
}

func NewGenerator(apiKey, model string) *Generator {
	return &Generator{apiKey: apiKey, model: model}
}

func (g *Generator) Enabled() bool {
	return g.apiKey != ""
}

const maxPromptBooks = 40

func (g *Generator) Generate(ctx context.Context, library book.Library) (*Insights, error) {
	if !g.Enabled() {
		return nil, fmt.Errorf("no API key configured")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)
	model.SetTemperature(0.7)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(buildPrompt(library)))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates returned from Gemini")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("empty content returned from Gemini")
	}

	txt, ok := candidate.Content.Parts[0].(genai.Text)
	if !ok {
		return nil, fmt.Errorf("unexpected response format from Gemini")
	}

	insights, err := parseResponse(string(txt))
	if err != nil {
		return nil, err
	}

	insights.GeneratedAt = time.Now().UTC()
	return insights, nil
}

func buildPrompt(library book.Library) string {
	var sb strings.Builder
	sb.WriteString("You are analyzing a personal reading log. Based on the books below, ")
	sb.WriteString("respond with JSON containing: \"personality\" (a short reader profile paragraph), ")
	sb.WriteString("\"recommendations\" (up to 5 book titles with authors), and ")
	sb.WriteString("\"observations\" (up to 5 short notes on patterns in the log).\n\nBooks:\n")

	count := 0
	for _, b := range library {
		if b.Status != book.StatusRead {
			continue
		}
		sb.WriteString("- ")
		sb.WriteString(b.Title)
		sb.WriteString(" by ")
		sb.WriteString(b.Author)
		if b.Rating > 0 {
			fmt.Fprintf(&sb, " (rated %.0f/5)", b.Rating)
		}
		sb.WriteString("\n")

		count++
		if count >= maxPromptBooks {
			break
		}
	}

	return sb.String()
}

func parseResponse(raw string) (*Insights, error) {
	// Models occasionally wrap JSON in a markdown fence despite the MIME
	// type hint.
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var insights Insights
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &insights); err != nil {
		return nil, fmt.Errorf("failed to decode insights response: %w", err)
	}

	return &insights, nil
}
