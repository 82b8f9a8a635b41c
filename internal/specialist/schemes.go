package specialist

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/user/kisanmitra/internal/gateway"
	"github.com/user/kisanmitra/internal/retrieval"
	"github.com/user/kisanmitra/internal/types"
)

const schemesPrompt = `You are a helpful assistant specializing in Indian government schemes and agricultural policies.

USER QUERY: %s
ANSWER LANGUAGE: %s

RETRIEVED CONTEXT:
%s

TASK:
Using ONLY the information in the retrieved context above, answer the user's query about government schemes.

RESPONSE FORMAT (JSON only):
{
  "message": "Comprehensive answer, markdown-lite with **bold** for scheme names",
  "schemes": [
    {
      "name": "Scheme Name",
      "description": "Brief description",
      "eligibility": "Who can apply",
      "benefits": "What benefits are provided",
      "application_process": "How to apply"
    }
  ]
}

IMPORTANT RULES:
1. Use ONLY information from the retrieved context.
2. If the context does not cover the query, say so in the message and return an empty schemes list.
3. Format financial amounts in Indian Rupees (Rs.).
4. Use simple language that farmers can understand.

CRITICAL: Return ONLY the JSON object. No markdown blocks.`

const noSchemesMessage = "I couldn't find any government scheme matching your question in my current database. " +
	"You can contact your local agriculture department or Krishi Vigyan Kendra for detailed information."

// Schemes answers policy and subsidy questions with retrieval-augmented
// generation over the scheme corpus.
type Schemes struct {
	gw        *gateway.Gateway
	retriever types.Retriever
	builder   *retrieval.ContextBuilder
	topK      int
}

// NewSchemes creates the scheme advisor.
func NewSchemes(gw *gateway.Gateway, retriever types.Retriever, builder *retrieval.ContextBuilder, topK int) *Schemes {
	if topK <= 0 {
		topK = 5
	}
	return &Schemes{gw: gw, retriever: retriever, builder: builder, topK: topK}
}

// Answer retrieves matching documents and generates a grounded answer.
// Zero retrieved documents is not an error: the answer explains that no
// scheme matched, without spending a generation call.
func (s *Schemes) Answer(ctx context.Context, query, language string) (*types.SchemeAnswer, error) {
	docs, err := s.retriever.Search(ctx, query, s.topK)
	if err != nil {
		return nil, fmt.Errorf("search scheme corpus: %w", err)
	}

	if len(docs) == 0 {
		slog.Info("no scheme documents matched", "query_len", len(query))
		return &types.SchemeAnswer{
			Message:    noSchemesMessage,
			Schemes:    []types.Scheme{},
			Sources:    []string{},
			Confidence: types.ConfidenceLow,
		}, nil
	}

	if language == "" {
		language = "en"
	}
	prompt := fmt.Sprintf(schemesPrompt, query, language, s.builder.Build(docs))

	var generated struct {
		Message string         `json:"message"`
		Schemes []types.Scheme `json:"schemes"`
	}
	if err := s.gw.GenerateJSON(ctx, prompt, &generated); err != nil {
		return nil, err
	}

	answer := &types.SchemeAnswer{
		Message:    generated.Message,
		Schemes:    generated.Schemes,
		Sources:    extractSources(docs),
		Confidence: retrievalConfidence(docs),
	}
	if answer.Message == "" {
		answer.Message = noSchemesMessage
	}
	if answer.Schemes == nil {
		answer.Schemes = []types.Scheme{}
	}
	return answer, nil
}

// extractSources returns up to 3 unique document sources, rank order.
func extractSources(docs []types.ScoredDocument) []string {
	sources := []string{}
	seen := make(map[string]bool)
	for _, d := range docs {
		if d.Source == "" || seen[d.Source] {
			continue
		}
		seen[d.Source] = true
		sources = append(sources, d.Source)
		if len(sources) == 3 {
			break
		}
	}
	return sources
}

// retrievalConfidence grades the answer by mean retrieval score.
func retrievalConfidence(docs []types.ScoredDocument) types.Confidence {
	if len(docs) == 0 {
		return types.ConfidenceLow
	}
	var sum float64
	for _, d := range docs {
		sum += d.Score
	}
	avg := sum / float64(len(docs))
	switch {
	case avg > 0.8:
		return types.ConfidenceHigh
	case avg > 0.6:
		return types.ConfidenceMedium
	default:
		return types.ConfidenceLow
	}
}
