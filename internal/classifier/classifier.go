// Package classifier resolves the intent of free-text requests that the
// fast-path rules cannot determine.
package classifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/user/kisanmitra/internal/gateway"
	"github.com/user/kisanmitra/internal/types"
)

const classifyPrompt = `You are an AI assistant helping Indian farmers. Classify the intent of this message.

Available categories:
1. "disease_detection" - the farmer describes diseases, pests, spots, wilting, or other crop health problems
2. "government_schemes" - the farmer asks about subsidies, schemes, loans, insurance, or government support
3. "transcription" - the farmer asks to transcribe or convert speech to text
4. "unknown" - anything else

Message: %q

Respond ONLY with valid JSON in this format:
{
  "intent": "government_schemes",
  "confidence": 0.95,
  "reasoning": "The farmer asks about drip irrigation subsidies"
}`

// Classifier labels text requests with one of the four intents.
type Classifier struct {
	gw *gateway.Gateway
}

// New creates a Classifier backed by the given gateway.
func New(gw *gateway.Gateway) *Classifier {
	return &Classifier{gw: gw}
}

// modelVerdict is the JSON shape the model is instructed to produce.
type modelVerdict struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Classify labels the text. It fails closed: any gateway error, parse
// failure, or out-of-set intent yields unknown with low confidence, never
// an error.
func (c *Classifier) Classify(ctx context.Context, text string) types.Classification {
	var verdict modelVerdict
	err := c.gw.GenerateJSON(ctx, fmt.Sprintf(classifyPrompt, text), &verdict)
	if err != nil {
		slog.Warn("classification failed", "error", err)
		return unknownClassification("classification unavailable")
	}

	intent := types.Intent(verdict.Intent)
	if !intent.Valid() {
		slog.Warn("classifier returned unknown intent", "intent", verdict.Intent)
		return unknownClassification(fmt.Sprintf("unrecognized intent %q", verdict.Intent))
	}

	score := verdict.Confidence
	if score < 0 || score > 1 {
		score = 0.5
	}

	return types.Classification{
		Intent:     intent,
		Score:      score,
		Confidence: bucketScore(score),
		Reasoning:  verdict.Reasoning,
	}
}

func unknownClassification(reason string) types.Classification {
	return types.Classification{
		Intent:     types.IntentUnknown,
		Score:      0.1,
		Confidence: types.ConfidenceLow,
		Reasoning:  reason,
	}
}

func bucketScore(score float64) types.Confidence {
	switch {
	case score >= 0.8:
		return types.ConfidenceHigh
	case score >= 0.5:
		return types.ConfidenceMedium
	default:
		return types.ConfidenceLow
	}
}
