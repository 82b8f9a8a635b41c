// Package ingest fetches government scheme pages, converts them to
// markdown, and loads the resulting documents into the retrieval corpus.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/user/kisanmitra/internal/state"
	"github.com/user/kisanmitra/internal/types"
)

const (
	// chunkChars bounds the size of one corpus document so retrieval
	// context stays fine-grained.
	chunkChars   = 4000
	maxPageChars = 200000
)

// Corpus is the document store the ingestor writes into. RemovePrefix
// clears a source's earlier chunks so a page that shrank does not leave
// stale documents behind.
type Corpus interface {
	types.Retriever
	RemovePrefix(ctx context.Context, prefix string) (int, error)
}

// Ingestor pulls source pages into the corpus.
type Ingestor struct {
	client *http.Client
	corpus Corpus
}

// New creates an Ingestor writing into the given corpus.
func New(corpus Corpus) *Ingestor {
	return &Ingestor{
		client: &http.Client{Timeout: 30 * time.Second},
		corpus: corpus,
	}
}

// IngestSource fetches one source URL, converts it to markdown, chunks
// it, and stores the chunks as documents. The source's previous chunks
// are removed first, so a re-ingest fully replaces them.
func (i *Ingestor) IngestSource(ctx context.Context, src *state.Source) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "KisanMitra/1.0")

	resp, err := i.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch source %s: %w", src.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fetch source %s: status %d", src.Name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageChars))
	if err != nil {
		return 0, fmt.Errorf("read body: %w", err)
	}

	md, err := htmltomarkdown.ConvertString(string(body))
	if err != nil {
		return 0, fmt.Errorf("convert to markdown: %w", err)
	}

	docs := chunkDocuments(src, md)
	if len(docs) == 0 {
		return 0, fmt.Errorf("source %s produced no content", src.Name)
	}
	if _, err := i.corpus.RemovePrefix(ctx, src.Name+"-"); err != nil {
		return 0, fmt.Errorf("clear previous chunks: %w", err)
	}
	if err := i.corpus.Add(ctx, docs); err != nil {
		return 0, fmt.Errorf("add documents: %w", err)
	}

	slog.Info("ingested source", "source", src.Name, "documents", len(docs))
	return len(docs), nil
}

// IngestAll runs every enabled source, continuing past individual
// failures. Returns the total number of documents ingested.
func (i *Ingestor) IngestAll(ctx context.Context, sources *state.SourceStore) (int, error) {
	list, err := sources.List()
	if err != nil {
		return 0, err
	}

	total := 0
	var lastErr error
	for _, src := range list {
		if !src.Enabled {
			continue
		}
		n, err := i.IngestSource(ctx, src)
		if err != nil {
			slog.Warn("source ingest failed", "source", src.Name, "error", err)
			lastErr = err
			continue
		}
		total += n
	}
	return total, lastErr
}

// chunkDocuments splits markdown into paragraph-aligned chunks of at
// most chunkChars each.
func chunkDocuments(src *state.Source, md string) []types.Document {
	var docs []types.Document
	var buf strings.Builder

	flush := func() {
		content := strings.TrimSpace(buf.String())
		buf.Reset()
		if content == "" {
			return
		}
		docs = append(docs, types.Document{
			ID:       fmt.Sprintf("%s-%d", src.Name, len(docs)),
			Title:    src.Name,
			Content:  content,
			Source:   src.URL,
			Category: src.Category,
		})
	}

	for _, para := range strings.Split(md, "\n\n") {
		if buf.Len() > 0 && buf.Len()+len(para) > chunkChars {
			flush()
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(para)
	}
	flush()
	return docs
}

// LoadJSON bulk-loads documents from a JSON file, for seeding the corpus
// without network access.
func (i *Ingestor) LoadJSON(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read corpus file: %w", err)
	}

	var docs []types.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return 0, fmt.Errorf("unmarshal corpus file: %w", err)
	}
	for idx, doc := range docs {
		if doc.ID == "" {
			return 0, fmt.Errorf("document %d has no id", idx)
		}
	}

	if err := i.corpus.Add(ctx, docs); err != nil {
		return 0, fmt.Errorf("add documents: %w", err)
	}
	return len(docs), nil
}
