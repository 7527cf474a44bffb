package exec

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
	"github.com/tmc/langchaingo/llms"

	"github.com/rahul/max/internal/plan"
)

const maxPageChars = 50000

// Reader extracts legible text from whatever page the controlled
// browser is showing. Summaries go through a model when one is wired,
// otherwise the reader falls back to the article excerpt.
type Reader struct {
	Browser    *BrowserSession
	Summarizer llms.Model
}

func (r *Reader) extract() (title, text string, err error) {
	if r.Browser == nil || !r.Browser.Active() {
		return "", "", fmt.Errorf("no browser page is open to read")
	}
	html, pageURL, err := r.Browser.PageHTML()
	if err != nil {
		return "", "", fmt.Errorf("failed to read page: %v", err)
	}

	parsed, err := url.Parse(pageURL)
	if err != nil {
		parsed = &url.URL{}
	}
	article, err := readability.FromReader(strings.NewReader(html), parsed)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse page content: %v", err)
	}

	// Strip anything readability let through.
	clean := bluemonday.StrictPolicy().Sanitize(article.TextContent)
	clean = strings.TrimSpace(clean)
	if len(clean) > maxPageChars {
		clean = clean[:maxPageChars] + "\n... (content truncated) ..."
	}
	return article.Title, clean, nil
}

func (r *Reader) ReadScreen(ctx context.Context, params plan.Params) (string, map[string]any, error) {
	title, text, err := r.extract()
	if err != nil {
		return "", nil, err
	}
	out := text
	if title != "" {
		out = "TITLE: " + title + "\n\n" + text
	}
	return out, map[string]any{"title": title, "chars": len(text)}, nil
}

func (r *Reader) SummarizeScreen(ctx context.Context, params plan.Params) (string, map[string]any, error) {
	title, text, err := r.extract()
	if err != nil {
		return "", nil, err
	}

	if r.Summarizer == nil {
		if len(text) > 400 {
			text = text[:400] + "..."
		}
		return text, map[string]any{"title": title, "summarized": false}, nil
	}

	prompt := fmt.Sprintf(
		"Summarize the following page in 3 short sentences.\n\nTitle: %s\n\n%s",
		title, text,
	)
	summary, err := llms.GenerateFromSinglePrompt(ctx, r.Summarizer, prompt,
		llms.WithTemperature(0.2), llms.WithMaxTokens(256))
	if err != nil {
		return "", nil, fmt.Errorf("summarization failed: %v", err)
	}
	return strings.TrimSpace(summary), map[string]any{"title": title, "summarized": true}, nil
}
