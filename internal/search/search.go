package search

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mgomes/khojlink/internal/khoj"
)

const defaultResultCount = 10

// Backend is the part of the Khoj client the searcher needs.
type Backend interface {
	Search(ctx context.Context, query, contentType string, n int) ([]khoj.SearchHit, error)
}

type Searcher struct {
	backend  Backend
	vaultDir string
	limit    int
}

type Result struct {
	Rank    int
	Score   float64
	Path    string
	Heading string
	Content string
}

func New(backend Backend, vaultDir string, limit int) *Searcher {
	if limit <= 0 {
		limit = defaultResultCount
	}
	return &Searcher{
		backend:  backend,
		vaultDir: vaultDir,
		limit:    limit,
	}
}

// Search queries the backend's markdown index. Results are ordered by score
// and carry paths relative to the vault when the note lives inside it.
func (s *Searcher) Search(ctx context.Context, query string) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty search query")
	}

	hits, err := s.backend.Search(ctx, query, khoj.ContentMarkdown, s.limit)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	if len(hits) == 0 {
		return nil, nil
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > s.limit {
		hits = hits[:s.limit]
	}

	results := make([]Result, len(hits))
	for i, h := range hits {
		content := h.Compiled
		if content == "" {
			content = h.Entry
		}
		results[i] = Result{
			Rank:    i + 1,
			Score:   h.Score,
			Path:    s.relativePath(h.File),
			Heading: h.Heading,
			Content: content,
		}
	}

	return results, nil
}

func (s *Searcher) relativePath(file string) string {
	if s.vaultDir == "" || file == "" {
		return file
	}
	rel, err := filepath.Rel(s.vaultDir, file)
	if err != nil || strings.HasPrefix(rel, "..") {
		return file
	}
	return filepath.ToSlash(rel)
}
