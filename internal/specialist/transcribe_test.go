package specialist

import (
	"context"
	"errors"
	"strings"
	"testing"
)

var mp3Header = append([]byte("ID3"), []byte{0x03, 0x00, 0x00}...)

func TestTranscribeSuccess(t *testing.T) {
	stub := &stubProvider{content: "My tomato plants have yellow spots on the lower leaves."}
	tr := NewTranscriber(newGateway(stub))

	result := tr.Transcribe(context.Background(), mp3Header, "en")
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if !strings.Contains(result.Transcript, "yellow spots") {
		t.Errorf("unexpected transcript: %q", result.Transcript)
	}
	if result.Confidence != 0.8 {
		t.Errorf("expected base confidence 0.8, got %f", result.Confidence)
	}
}

func TestTranscribeEmptyAudio(t *testing.T) {
	stub := &stubProvider{content: "unused"}
	tr := NewTranscriber(newGateway(stub))

	result := tr.Transcribe(context.Background(), nil, "en")
	if result.Success {
		t.Error("expected failure for empty audio")
	}
	if stub.calls != 0 {
		t.Errorf("expected zero gateway calls, got %d", stub.calls)
	}
}

func TestTranscribeGatewayFailure(t *testing.T) {
	stub := &stubProvider{err: errors.New("status 401: unauthorized")}
	tr := NewTranscriber(newGateway(stub))

	result := tr.Transcribe(context.Background(), mp3Header, "hi")
	if result.Success {
		t.Error("expected failure result")
	}
	if result.Error == "" {
		t.Error("expected populated error text")
	}
}

func TestTranscribeEmptyTranscript(t *testing.T) {
	stub := &stubProvider{content: "   \n  "}
	tr := NewTranscriber(newGateway(stub))

	result := tr.Transcribe(context.Background(), mp3Header, "en")
	if result.Success {
		t.Error("expected failure for blank transcript")
	}
}

func TestEstimateConfidence(t *testing.T) {
	cases := []struct {
		name       string
		transcript string
		want       float64
	}{
		{"clean", "the crop needs more water this week", 0.8},
		{"one unclear", "spray [unclear] on the leaves weekly", 0.7},
		{"short", "hello there", 0.6},
		{"error words", "sorry I cannot make out the recording", 0.5},
		{"floor", "sorry [unclear] [unclear] [unclear] [unclear] [unclear] [unclear]", 0.1},
	}
	for _, c := range cases {
		got := estimateConfidence(c.transcript)
		if diff := got - c.want; diff > 0.001 || diff < -0.001 {
			t.Errorf("%s: expected %f, got %f", c.name, c.want, got)
		}
	}
}

func TestLanguageName(t *testing.T) {
	if got := LanguageName("hi"); got != "Hindi" {
		t.Errorf("expected Hindi, got %s", got)
	}
	if got := LanguageName("HI"); got != "Hindi" {
		t.Errorf("expected case-insensitive lookup, got %s", got)
	}
	if got := LanguageName("xx"); got != "English" {
		t.Errorf("expected English fallback, got %s", got)
	}
	if got := LanguageName(""); got != "English" {
		t.Errorf("expected English for empty code, got %s", got)
	}
}

func TestSniffAudioMime(t *testing.T) {
	if got := sniffAudioMime(mp3Header); got != "audio/mpeg" {
		t.Errorf("expected audio/mpeg for ID3, got %s", got)
	}
	if got := sniffAudioMime([]byte{0xFF, 0xFB, 0x90}); got != "audio/mpeg" {
		t.Errorf("expected audio/mpeg for frame sync, got %s", got)
	}
	if got := sniffAudioMime([]byte("RIFFxxxxWAVE")); got != "audio/wav" {
		t.Errorf("expected audio/wav fallback, got %s", got)
	}
}
