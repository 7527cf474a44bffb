package exec

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/tools/duckduckgo"

	"github.com/rahul/max/internal/plan"
)

// Searcher answers search_web actions through DuckDuckGo.
type Searcher struct {
	client *duckduckgo.Tool
}

func NewSearcher() (*Searcher, error) {
	ddg, err := duckduckgo.New(10, duckduckgo.DefaultUserAgent)
	if err != nil {
		return nil, err
	}
	return &Searcher{client: ddg}, nil
}

func (s *Searcher) Search(ctx context.Context, params plan.Params) (string, map[string]any, error) {
	query := strParam(params, "query")
	if query == "" {
		return "", nil, fmt.Errorf("search_web needs a query")
	}
	res, err := s.client.Call(ctx, query)
	if err != nil {
		return "", nil, fmt.Errorf("search failed: %w", err)
	}
	return res, map[string]any{"query": query}, nil
}
