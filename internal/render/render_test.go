package render

import (
	"strings"
	"testing"

	"github.com/user/kisanmitra/internal/types"
)

func TestConfidenceBucket(t *testing.T) {
	cases := []struct {
		score float64
		want  types.Confidence
	}{
		{0.95, types.ConfidenceHigh},
		{0.8, types.ConfidenceHigh},
		{0.79, types.ConfidenceMedium},
		{0.5, types.ConfidenceMedium},
		{0.49, types.ConfidenceLow},
		{0.1, types.ConfidenceLow},
	}
	for _, c := range cases {
		if got := ConfidenceBucket(c.score); got != c.want {
			t.Errorf("score %f: expected %s, got %s", c.score, c.want, got)
		}
	}
}

func TestRenderDisease(t *testing.T) {
	env := &types.ResponseEnvelope{
		IntentUsed: types.IntentDiseaseDetection,
		Result: types.HandlerResult{
			Kind: types.ResultDisease,
			Disease: &types.DiseaseAnalysis{
				DiseaseName:      "Early blight",
				Confidence:       types.ConfidenceHigh,
				Severity:         types.SeverityMedium,
				SymptomsObserved: []string{"brown concentric rings"},
				ImmediateAction:  "Remove affected leaves",
				TreatmentSummary: "Apply copper fungicide",
				OrganicSolutions: []types.OrganicSolution{{Name: "Neem oil", Preparation: "5ml/l", Application: "spray weekly"}},
				PreventionTips:   []string{"rotate crops"},
				CostEstimate:     "Rs. 400",
			},
		},
	}

	out := Envelope(env)
	for _, want := range []string{"Early blight", "severity: medium", "Remove affected leaves", "Neem oil", "Rs. 400"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRenderHealthyCrop(t *testing.T) {
	env := &types.ResponseEnvelope{
		Result: types.HandlerResult{
			Kind: types.ResultDisease,
			Disease: &types.DiseaseAnalysis{
				DiseaseName: "none",
				Confidence:  types.ConfidenceHigh,
				Severity:    types.SeverityNone,
			},
		},
	}
	out := Envelope(env)
	if !strings.Contains(out, "healthy") {
		t.Errorf("expected healthy message, got:\n%s", out)
	}
}

func TestRenderSchemes(t *testing.T) {
	env := &types.ResponseEnvelope{
		Result: types.HandlerResult{
			Kind: types.ResultSchemes,
			Schemes: &types.SchemeAnswer{
				Message: "**PM-KISAN** supports farmer families.",
				Schemes: []types.Scheme{{
					Name:        "PM-KISAN",
					Description: "Income support",
					Eligibility: "Landholding farmers",
					Benefits:    "Rs. 6000/year",
				}},
				Sources:    []string{"pmkisan.gov.in"},
				Confidence: types.ConfidenceHigh,
			},
		},
	}

	out := Envelope(env)
	for _, want := range []string{"PM-KISAN", "Landholding farmers", "Rs. 6000/year", "Sources: pmkisan.gov.in"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRenderTranscription(t *testing.T) {
	env := &types.ResponseEnvelope{
		Result: types.HandlerResult{
			Kind:          types.ResultTranscription,
			Transcription: &types.Transcription{Success: true, Transcript: "my crop has spots", Confidence: 0.85},
		},
	}
	out := Envelope(env)
	if !strings.Contains(out, "my crop has spots") || !strings.Contains(out, "high confidence") {
		t.Errorf("unexpected output:\n%s", out)
	}

	env.Result.Transcription = &types.Transcription{Success: false, Error: "audio too noisy"}
	out = Envelope(env)
	if !strings.Contains(out, "audio too noisy") {
		t.Errorf("expected error surfaced, got:\n%s", out)
	}
}

func TestRenderFallback(t *testing.T) {
	env := &types.ResponseEnvelope{
		Result: types.HandlerResult{
			Kind:     types.ResultFallback,
			Fallback: &types.Fallback{Message: "I can help with crops and schemes."},
		},
	}
	if out := Envelope(env); out != "I can help with crops and schemes." {
		t.Errorf("unexpected output: %q", out)
	}
}
