// Package render turns response envelopes into farmer-facing text with
// markdown-lite markers. Channel adapters decide how to deliver it.
package render

import (
	"fmt"
	"strings"

	"github.com/user/kisanmitra/internal/types"
)

// ConfidenceBucket maps a numeric transcription confidence onto the
// three-level display scale. Downstream displays rely on the 0.5 and
// 0.8 thresholds.
func ConfidenceBucket(score float64) types.Confidence {
	switch {
	case score >= 0.8:
		return types.ConfidenceHigh
	case score >= 0.5:
		return types.ConfidenceMedium
	default:
		return types.ConfidenceLow
	}
}

// Envelope renders the handler result as user-facing text.
func Envelope(env *types.ResponseEnvelope) string {
	switch env.Result.Kind {
	case types.ResultDisease:
		return disease(env.Result.Disease)
	case types.ResultSchemes:
		return schemes(env.Result.Schemes)
	case types.ResultTranscription:
		return transcription(env.Result.Transcription)
	case types.ResultFallback:
		return fallback(env.Result.Fallback)
	}
	return "Sorry, I could not process that request."
}

func disease(a *types.DiseaseAnalysis) string {
	var b strings.Builder
	b.WriteString("**Crop Health Analysis**\n\n")

	if a.DiseaseName == "none" {
		b.WriteString("No disease detected. Your crop looks healthy.\n")
	} else {
		fmt.Fprintf(&b, "**Disease:** %s (confidence: %s, severity: %s)\n", a.DiseaseName, a.Confidence, a.Severity)
	}

	if len(a.SymptomsObserved) > 0 {
		b.WriteString("\n**Symptoms observed:**\n")
		for _, s := range a.SymptomsObserved {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}
	if a.ImmediateAction != "" {
		fmt.Fprintf(&b, "\n**Do this today:** %s\n", a.ImmediateAction)
	}
	if a.TreatmentSummary != "" {
		fmt.Fprintf(&b, "\n**Treatment:** %s\n", a.TreatmentSummary)
	}
	if len(a.OrganicSolutions) > 0 {
		b.WriteString("\n**Organic options:**\n")
		for _, o := range a.OrganicSolutions {
			fmt.Fprintf(&b, "- *%s*: %s. %s\n", o.Name, o.Preparation, o.Application)
		}
	}
	if len(a.PreventionTips) > 0 {
		b.WriteString("\n**Prevention:**\n")
		for _, tip := range a.PreventionTips {
			fmt.Fprintf(&b, "- %s\n", tip)
		}
	}
	if a.CostEstimate != "" {
		fmt.Fprintf(&b, "\n**Estimated cost:** %s\n", a.CostEstimate)
	}
	if a.SuccessTimeline != "" {
		fmt.Fprintf(&b, "**Recovery time:** %s\n", a.SuccessTimeline)
	}
	if a.WarningSigns != "" {
		fmt.Fprintf(&b, "**Watch out for:** %s\n", a.WarningSigns)
	}
	return strings.TrimRight(b.String(), "\n")
}

func schemes(a *types.SchemeAnswer) string {
	var b strings.Builder
	b.WriteString(a.Message)

	for _, s := range a.Schemes {
		fmt.Fprintf(&b, "\n\n**%s**\n%s", s.Name, s.Description)
		if s.Eligibility != "" {
			fmt.Fprintf(&b, "\n*Eligibility:* %s", s.Eligibility)
		}
		if s.Benefits != "" {
			fmt.Fprintf(&b, "\n*Benefits:* %s", s.Benefits)
		}
		if s.ApplicationProcess != "" {
			fmt.Fprintf(&b, "\n*How to apply:* %s", s.ApplicationProcess)
		}
	}

	if len(a.Sources) > 0 {
		b.WriteString("\n\nSources: " + strings.Join(a.Sources, ", "))
	}
	return b.String()
}

func transcription(t *types.Transcription) string {
	if !t.Success {
		return fmt.Sprintf("Sorry, I couldn't understand the audio. %s", t.Error)
	}
	return fmt.Sprintf("**Transcript** (%s confidence):\n%s", ConfidenceBucket(t.Confidence), t.Transcript)
}

func fallback(f *types.Fallback) string {
	return f.Message
}
