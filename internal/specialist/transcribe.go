package specialist

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/user/kisanmitra/internal/gateway"
	"github.com/user/kisanmitra/internal/types"
)

const transcribePrompt = `You are an expert transcription system. Transcribe this audio recording accurately.

Language: %s
Context: Agricultural/farming conversation

Instructions:
1. Transcribe exactly what is spoken, word for word.
2. Use proper punctuation and capitalization.
3. Common agricultural terms may include: crops, diseases, fertilizers, pesticides, irrigation, harvest.
4. Mark genuinely inaudible words as [unclear].
5. Output ONLY the transcribed text with no additional comments.`

// languageNames maps request language codes to display names for the
// transcription prompt.
var languageNames = map[string]string{
	"en": "English",
	"hi": "Hindi",
	"bn": "Bengali",
	"ta": "Tamil",
	"te": "Telugu",
	"mr": "Marathi",
	"gu": "Gujarati",
	"kn": "Kannada",
	"ml": "Malayalam",
	"pa": "Punjabi",
	"ur": "Urdu",
}

// Transcriber converts short audio clips to text.
type Transcriber struct {
	gw *gateway.Gateway
}

// NewTranscriber creates the speech transcriber.
func NewTranscriber(gw *gateway.Gateway) *Transcriber {
	return &Transcriber{gw: gw}
}

// LanguageName resolves a language code to its display name, defaulting
// to English for unknown codes.
func LanguageName(code string) string {
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return "English"
}

// Transcribe converts audio to text. Gateway failures yield a
// Success=false result with a populated error, never a Go error: the
// caller always gets a renderable Transcription.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, language string) *types.Transcription {
	if len(audio) == 0 {
		return &types.Transcription{
			Success: false,
			Error:   "no audio content provided",
		}
	}

	prompt := fmt.Sprintf(transcribePrompt, LanguageName(language))

	raw, err := t.gw.TranscribeAudio(ctx, prompt, sniffAudioMime(audio), audio)
	if err != nil {
		slog.Warn("transcription failed", "error", err)
		return &types.Transcription{
			Success: false,
			Error:   fmt.Sprintf("could not transcribe audio: %v", err),
		}
	}

	transcript := strings.TrimSpace(raw)
	if transcript == "" {
		return &types.Transcription{
			Success: false,
			Error:   "could not transcribe audio clearly",
		}
	}

	return &types.Transcription{
		Success:    true,
		Transcript: transcript,
		Confidence: estimateConfidence(transcript),
	}
}

// sniffAudioMime picks a mime type from magic bytes, defaulting to wav.
func sniffAudioMime(data []byte) string {
	if len(data) >= 3 && string(data[:3]) == "ID3" {
		return "audio/mpeg"
	}
	if len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0 {
		return "audio/mpeg"
	}
	return "audio/wav"
}

// estimateConfidence grades transcript quality heuristically: 0.8 base,
// deductions for [unclear] markers, very short output, and error-looking
// wording, clamped to [0.1, 1.0].
func estimateConfidence(transcript string) float64 {
	confidence := 0.8

	lower := strings.ToLower(transcript)
	confidence -= 0.1 * float64(strings.Count(lower, "[unclear]"))

	if len(strings.Fields(transcript)) < 3 {
		confidence -= 0.2
	}

	for _, indicator := range []string{"sorry", "cannot", "unable", "error", "failed"} {
		if strings.Contains(lower, indicator) {
			confidence -= 0.3
			break
		}
	}

	if confidence < 0.1 {
		return 0.1
	}
	if confidence > 1.0 {
		return 1.0
	}
	return confidence
}
