// internal/types/models_test.go
package types

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestEnvelopeRoundTripDisease(t *testing.T) {
	env := &ResponseEnvelope{
		SessionID:  NewSessionID(),
		IntentUsed: IntentDiseaseDetection,
		Result: HandlerResult{
			Kind: ResultDisease,
			Disease: &DiseaseAnalysis{
				DiseaseName:      "Early blight",
				Confidence:       ConfidenceHigh,
				Severity:         SeverityMedium,
				SymptomsObserved: []string{"brown concentric rings", "yellowing lower leaves"},
				ImmediateAction:  "Remove affected leaves",
				TreatmentSummary: "Apply copper-based fungicide",
				OrganicSolutions: []OrganicSolution{
					{Name: "Neem oil", Preparation: "5ml per litre of water", Application: "Spray weekly"},
				},
				PreventionTips:  []string{"Rotate crops", "Avoid overhead watering"},
				CostEstimate:    "Rs. 300-500 per acre",
				SuccessTimeline: "2-3 weeks",
				WarningSigns:    "Spots spreading to stems",
			},
		},
	}
	assertRoundTrip(t, env)
}

func TestEnvelopeRoundTripSchemes(t *testing.T) {
	env := &ResponseEnvelope{
		SessionID:  NewSessionID(),
		IntentUsed: IntentGovernmentSchemes,
		Result: HandlerResult{
			Kind: ResultSchemes,
			Schemes: &SchemeAnswer{
				Message: "**PM-KISAN** provides income support.",
				Schemes: []Scheme{
					{
						Name:               "PM-KISAN",
						Description:        "Income support for landholding farmers",
						Eligibility:        "Landholding farmer families",
						Benefits:           "Rs. 6000 per year",
						ApplicationProcess: "Apply at pmkisan.gov.in",
					},
				},
				Sources:    []string{"pmkisan.gov.in"},
				Confidence: ConfidenceMedium,
			},
		},
		Classification: &Classification{
			Intent:     IntentGovernmentSchemes,
			Score:      0.92,
			Confidence: ConfidenceHigh,
			Reasoning:  "query mentions subsidies",
		},
	}
	assertRoundTrip(t, env)
}

func TestEnvelopeRoundTripTranscription(t *testing.T) {
	env := &ResponseEnvelope{
		SessionID:  NewSessionID(),
		IntentUsed: IntentTranscription,
		Result: HandlerResult{
			Kind: ResultTranscription,
			Transcription: &Transcription{
				Success:    true,
				Transcript: "My tomato plants have yellow spots",
				Confidence: 0.85,
			},
		},
	}
	assertRoundTrip(t, env)
}

func assertRoundTrip(t *testing.T, env *ResponseEnvelope) {
	t.Helper()
	data, err := json.Marshal(env)
	if err != nil {
		t.Fatal(err)
	}
	var decoded ResponseEnvelope
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(env, &decoded) {
		t.Errorf("round trip mismatch:\n  in:  %+v\n  out: %+v", env, &decoded)
	}
}

func TestInputTypeValid(t *testing.T) {
	for _, it := range []InputType{InputText, InputImage, InputAudio} {
		if !it.Valid() {
			t.Errorf("expected %q to be valid", it)
		}
	}
	if InputType("video").Valid() {
		t.Error("expected video to be invalid")
	}
}

func TestIntentValid(t *testing.T) {
	for _, in := range []Intent{IntentDiseaseDetection, IntentGovernmentSchemes, IntentTranscription, IntentUnknown} {
		if !in.Valid() {
			t.Errorf("expected %q to be valid", in)
		}
	}
	if Intent("weather").Valid() {
		t.Error("expected weather to be invalid")
	}
}

func TestIDsAreUnique(t *testing.T) {
	seen := make(map[SessionID]bool)
	for i := 0; i < 100; i++ {
		id := NewSessionID()
		if seen[id] {
			t.Fatalf("duplicate session id: %s", id)
		}
		seen[id] = true
	}
}

func TestNewSessionKey(t *testing.T) {
	key := NewSessionKey("telegram", "42", "99")
	if key != "telegram:42:99" {
		t.Errorf("expected telegram:42:99, got %s", key)
	}
}
