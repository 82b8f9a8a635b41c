// Package retrieval provides the scheme-corpus document store and the
// token-budgeted context assembly used by the scheme advisor.
package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/user/kisanmitra/internal/types"
)

// Store is a JSON-file-backed document store with keyword-overlap search.
// Documents are stored in corpus/documents.json.
type Store struct {
	root string
	mu   sync.RWMutex
}

// NewStore creates a file-backed Store rooted at the given directory.
func NewStore(root string) *Store {
	return &Store{root: root}
}

func (s *Store) corpusPath() string {
	return filepath.Join(s.root, "corpus", "documents.json")
}

func (s *Store) load() ([]types.Document, error) {
	data, err := os.ReadFile(s.corpusPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	var docs []types.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("unmarshal corpus: %w", err)
	}
	return docs, nil
}

func (s *Store) save(docs []types.Document) error {
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal corpus: %w", err)
	}

	dir := filepath.Dir(s.corpusPath())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create corpus dir: %w", err)
	}

	// Atomic write: write to temp file then rename
	tmp := s.corpusPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp corpus: %w", err)
	}
	if err := os.Rename(tmp, s.corpusPath()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp corpus: %w", err)
	}
	return nil
}

// Add upserts documents into the corpus, keyed by document ID.
func (s *Store) Add(_ context.Context, docs []types.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.load()
	if err != nil {
		return err
	}

	byID := make(map[string]int, len(existing))
	for i, d := range existing {
		byID[d.ID] = i
	}
	for _, d := range docs {
		if i, ok := byID[d.ID]; ok {
			existing[i] = d
		} else {
			byID[d.ID] = len(existing)
			existing = append(existing, d)
		}
	}
	return s.save(existing)
}

// RemovePrefix deletes every document whose id starts with prefix and
// returns how many were removed. Used to clear a source's chunks before
// re-ingesting it.
func (s *Store) RemovePrefix(_ context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.load()
	if err != nil {
		return 0, err
	}

	kept := existing[:0]
	for _, d := range existing {
		if !strings.HasPrefix(d.ID, prefix) {
			kept = append(kept, d)
		}
	}
	removed := len(existing) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	return removed, s.save(kept)
}

// Count returns the number of documents in the corpus.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs, err := s.load()
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

// Search scores every document against the query by weighted keyword
// overlap and returns the topK best matches, best first. Documents with a
// zero score are excluded; an empty result is not an error.
func (s *Store) Search(_ context.Context, query string, topK int) ([]types.ScoredDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs, err := s.load()
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 || topK <= 0 {
		return nil, nil
	}

	queryTerms := tokenize(query)
	if len(queryTerms) == 0 {
		return nil, nil
	}

	// Document frequency per term, for rarity weighting.
	df := make(map[string]int)
	docTerms := make([]map[string]bool, len(docs))
	for i, d := range docs {
		terms := make(map[string]bool)
		for _, t := range tokenize(d.Title + " " + d.Content + " " + d.Category) {
			terms[t] = true
		}
		docTerms[i] = terms
		for t := range terms {
			df[t]++
		}
	}

	var scored []types.ScoredDocument
	for i, d := range docs {
		score := scoreDoc(queryTerms, docTerms[i], df, len(docs))
		if score <= 0 {
			continue
		}
		scored = append(scored, types.ScoredDocument{Document: d, Score: score})
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

// scoreDoc computes normalized rarity-weighted term overlap in [0,1].
func scoreDoc(queryTerms []string, docTerms map[string]bool, df map[string]int, totalDocs int) float64 {
	var matched, total float64
	for _, t := range queryTerms {
		weight := 1.0
		if n := df[t]; n > 0 {
			weight = 1 + math.Log(float64(totalDocs)/float64(n))
		}
		total += weight
		if docTerms[t] {
			matched += weight
		}
	}
	if total == 0 {
		return 0
	}
	return matched / total
}

// stopwords are excluded from both query and document terms.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "for": true,
	"in": true, "is": true, "of": true, "on": true, "or": true,
	"the": true, "to": true, "what": true, "which": true, "with": true,
	"do": true, "does": true, "how": true, "can": true, "i": true,
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) < 2 || stopwords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}
