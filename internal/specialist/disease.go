// Package specialist holds the three domain analyzers the orchestrator
// dispatches to: disease detection, scheme advice, and speech
// transcription. Each produces one HandlerResult variant and degrades to
// a populated result rather than an error wherever something renderable
// can be salvaged.
package specialist

import (
	"bytes"
	"context"
	"fmt"

	"github.com/user/kisanmitra/internal/gateway"
	"github.com/user/kisanmitra/internal/types"
)

const diseasePrompt = `You are a plant pathologist AI. Analyze this crop image for diseases.

CONTEXT:
- Location: India
- Farmer's description: %s

RESPONSE FORMAT (JSON only):
{
  "disease_name": "Disease name, or \"none\" if the plant looks healthy",
  "confidence": "low|medium|high",
  "severity": "none|low|medium|high",
  "symptoms_observed": ["visible symptom 1", "visible symptom 2"],
  "immediate_action": "What the farmer should do today",
  "treatment_summary": "Primary treatment, organic or chemical",
  "organic_solutions": [
    {"name": "Neem oil", "preparation": "5ml per litre of water", "application": "Spray weekly"}
  ],
  "prevention_tips": ["tip 1", "tip 2"],
  "cost_estimate": "Approximate cost in Indian Rupees",
  "success_timeline": "Expected recovery time",
  "warning_signs": "Signs that the problem is getting worse"
}

RULES:
1. Use precise disease names in English.
2. If no disease is visible, set disease_name to "none" and severity to "none".
3. Keep advice practical for small Indian farms; use Indian Rupees for costs.

CRITICAL: Return ONLY the JSON object. No markdown blocks.`

// Disease analyzes crop images for diseases.
type Disease struct {
	gw *gateway.Gateway
}

// NewDisease creates the disease analyzer.
func NewDisease(gw *gateway.Gateway) *Disease {
	return &Disease{gw: gw}
}

// SniffImageMime returns the mime type for recognized image bytes, or ""
// when the content is not a supported image.
func SniffImageMime(data []byte) string {
	switch {
	case len(data) >= 3 && bytes.Equal(data[:3], []byte{0xFF, 0xD8, 0xFF}):
		return "image/jpeg"
	case len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}):
		return "image/png"
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "image/webp"
	}
	return ""
}

// Analyze produces a structured diagnosis from image bytes and an optional
// text hint. Non-image bytes are rejected; unparseable model output
// degrades to a low-confidence analysis carrying the raw text.
func (d *Disease) Analyze(ctx context.Context, image []byte, textHint string) (*types.DiseaseAnalysis, error) {
	mime := SniffImageMime(image)
	if mime == "" {
		return nil, fmt.Errorf("%w: content is not a supported image (jpeg, png, webp)", types.ErrInvalidInput)
	}

	if textHint == "" {
		textHint = "none provided"
	}
	prompt := fmt.Sprintf(diseasePrompt, textHint)

	raw, err := d.gw.AnalyzeImage(ctx, prompt, mime, image)
	if err != nil {
		return nil, err
	}

	var analysis types.DiseaseAnalysis
	if err := gateway.UnmarshalModelJSON(raw, &analysis); err != nil {
		// Keep whatever the model said rather than dropping the answer.
		analysis = types.DiseaseAnalysis{
			DiseaseName:      "unstructured analysis",
			Confidence:       types.ConfidenceLow,
			Severity:         types.SeverityNone,
			TreatmentSummary: truncate(raw, 500),
		}
	}

	normalizeAnalysis(&analysis)
	return &analysis, nil
}

// normalizeAnalysis clamps enum fields and replaces nil lists so every
// field is present in the envelope.
func normalizeAnalysis(a *types.DiseaseAnalysis) {
	switch a.Confidence {
	case types.ConfidenceLow, types.ConfidenceMedium, types.ConfidenceHigh:
	default:
		a.Confidence = types.ConfidenceLow
	}
	switch a.Severity {
	case types.SeverityNone, types.SeverityLow, types.SeverityMedium, types.SeverityHigh:
	default:
		a.Severity = types.SeverityNone
	}
	if a.DiseaseName == "" {
		a.DiseaseName = "none"
	}
	if a.SymptomsObserved == nil {
		a.SymptomsObserved = []string{}
	}
	if a.OrganicSolutions == nil {
		a.OrganicSolutions = []types.OrganicSolution{}
	}
	if a.PreventionTips == nil {
		a.PreventionTips = []string{}
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
