package ingest

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// JsonWalker implements Walker over documents decoded by oj.Parse.
// Compiled selectors are kept for the lifetime of the walker; importers
// reuse the same handful of selectors for every file.
type JsonWalker struct {
	mu    sync.Mutex
	exprs map[string]jp.Expr
}

func NewJsonWalker() *JsonWalker {
	return &JsonWalker{exprs: make(map[string]jp.Expr)}
}

func (w *JsonWalker) compile(selector string) (jp.Expr, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if x, ok := w.exprs[selector]; ok {
		return x, nil
	}
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", selector, err)
	}
	w.exprs[selector] = x
	return x, nil
}

// Query implements Walker.
func (w *JsonWalker) Query(root any, selector string) ([]Match, error) {
	x, err := w.compile(selector)
	if err != nil {
		return nil, err
	}

	results := x.Get(root)
	matches := make([]Match, len(results))
	for i, r := range results {
		matches[i] = &jsonMatch{value: r}
	}
	return matches, nil
}

type jsonMatch struct {
	value any
}

// Context implements Match.
func (m *jsonMatch) Context() any {
	return m.value
}

// decodeMatches converts each match into a T by round-tripping it through
// JSON, so the api struct tags stay the single definition of the format.
func decodeMatches[T any](matches []Match) ([]T, error) {
	out := make([]T, 0, len(matches))
	for i, m := range matches {
		raw, err := oj.Marshal(m.Context())
		if err != nil {
			return nil, fmt.Errorf("encode match %d: %w", i, err)
		}
		var rec T
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode match %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
