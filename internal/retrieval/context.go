package retrieval

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/user/kisanmitra/internal/types"
)

// ContextBuilder packs retrieved documents into a token-budgeted context
// block for generation.
type ContextBuilder struct {
	tokenizer *tiktoken.Tiktoken
	maxTokens int
}

// NewContextBuilder creates a builder with the given token budget. model
// selects the tokenizer; unknown models fall back to cl100k_base.
func NewContextBuilder(model string, maxTokens int) (*ContextBuilder, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}
	return &ContextBuilder{tokenizer: enc, maxTokens: maxTokens}, nil
}

func (b *ContextBuilder) countTokens(text string) int {
	return len(b.tokenizer.Encode(text, nil, nil))
}

// Build greedily packs documents, best-ranked first, into a context block
// until the token budget is exhausted. At least one document is always
// included so a single oversized document cannot yield an empty context.
func (b *ContextBuilder) Build(docs []types.ScoredDocument) string {
	var parts []string
	used := 0

	for i, doc := range docs {
		part := fmt.Sprintf("Document %d:\nSource: %s\nTitle: %s\nContent: %s\n",
			i+1, doc.Source, doc.Title, doc.Content)
		cost := b.countTokens(part)
		if used+cost > b.maxTokens && len(parts) > 0 {
			break
		}
		parts = append(parts, part)
		used += cost
	}

	return strings.Join(parts, "\n---\n")
}
