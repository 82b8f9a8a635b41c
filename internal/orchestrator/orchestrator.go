// Package orchestrator validates incoming requests, resolves their
// intent, dispatches to exactly one specialist, and records each
// exchange as a session turn.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/user/kisanmitra/internal/types"
)

const (
	// DefaultMaxImageBytes caps image payloads at 5 MiB.
	DefaultMaxImageBytes = 5 << 20
	// DefaultMaxAudioBytes caps audio payloads at 10 MiB.
	DefaultMaxAudioBytes = 10 << 20
)

// Classifier resolves the intent of free-text requests.
type Classifier interface {
	Classify(ctx context.Context, text string) types.Classification
}

// DiseaseAnalyzer diagnoses crop images.
type DiseaseAnalyzer interface {
	Analyze(ctx context.Context, image []byte, textHint string) (*types.DiseaseAnalysis, error)
}

// SchemeAdvisor answers government scheme questions.
type SchemeAdvisor interface {
	Answer(ctx context.Context, query, language string) (*types.SchemeAnswer, error)
}

// SpeechTranscriber converts audio to text.
type SpeechTranscriber interface {
	Transcribe(ctx context.Context, audio []byte, language string) *types.Transcription
}

// Observer receives progress notes while a request is being handled.
// Channel adapters use it to show typing indicators or status lines.
type Observer func(thought string)

// Orchestrator is the per-request pipeline. It holds no cross-request
// mutable state; concurrency control belongs to the stores.
type Orchestrator struct {
	classifier  Classifier
	disease     DiseaseAnalyzer
	schemes     SchemeAdvisor
	transcriber SpeechTranscriber
	sessions    types.SessionStore
	turns       types.TurnStore

	maxImageBytes int
	maxAudioBytes int
	observer      Observer
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithObserver installs a progress hook.
func WithObserver(fn Observer) Option {
	return func(o *Orchestrator) { o.observer = fn }
}

// WithLimits overrides the payload size caps.
func WithLimits(maxImageBytes, maxAudioBytes int) Option {
	return func(o *Orchestrator) {
		if maxImageBytes > 0 {
			o.maxImageBytes = maxImageBytes
		}
		if maxAudioBytes > 0 {
			o.maxAudioBytes = maxAudioBytes
		}
	}
}

// New creates an Orchestrator wired to its specialists and stores.
func New(classifier Classifier, disease DiseaseAnalyzer, schemes SchemeAdvisor, transcriber SpeechTranscriber, sessions types.SessionStore, turns types.TurnStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		classifier:    classifier,
		disease:       disease,
		schemes:       schemes,
		transcriber:   transcriber,
		sessions:      sessions,
		turns:         turns,
		maxImageBytes: DefaultMaxImageBytes,
		maxAudioBytes: DefaultMaxAudioBytes,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) observe(format string, args ...any) {
	if o.observer != nil {
		o.observer(fmt.Sprintf(format, args...))
	}
}

// Handle runs one request through validation, intent resolution, and
// dispatch. Malformed requests return ErrInvalidInput, whether caught
// up front or by a specialist inspecting the content itself; other
// handler failures degrade to a renderable envelope. Store failures are
// logged but never block the answer.
func (o *Orchestrator) Handle(ctx context.Context, req *types.Request) (*types.ResponseEnvelope, error) {
	if err := o.validate(req); err != nil {
		return nil, err
	}
	if req.ID == "" {
		req.ID = types.NewRequestID()
	}

	o.observe("analyzing request")
	sessionID := o.resolveSession(ctx, req)

	intent, classification := o.resolveIntent(ctx, req)

	result, err := o.dispatch(ctx, req, intent, classification)
	if err != nil {
		return nil, err
	}

	env := &types.ResponseEnvelope{
		SessionID:      sessionID,
		IntentUsed:     intent,
		Classification: classification,
		Result:         result,
	}

	o.recordTurn(ctx, req, env)
	return env, nil
}

// validate rejects malformed requests before any network call.
func (o *Orchestrator) validate(req *types.Request) error {
	if !req.InputType.Valid() {
		return fmt.Errorf("%w: unrecognized input type %q", types.ErrInvalidInput, req.InputType)
	}
	if len(req.Content) == 0 {
		return fmt.Errorf("%w: empty content", types.ErrInvalidInput)
	}
	if req.QueryType != "" && !req.QueryType.Valid() {
		return fmt.Errorf("%w: unrecognized query type %q", types.ErrInvalidInput, req.QueryType)
	}

	switch req.InputType {
	case types.InputText:
		if !utf8.Valid(req.Content) || strings.TrimSpace(req.Text()) == "" {
			return fmt.Errorf("%w: text content must be non-blank UTF-8", types.ErrInvalidInput)
		}
	case types.InputImage:
		if len(req.Content) > o.maxImageBytes {
			return fmt.Errorf("%w: image exceeds %d MiB limit", types.ErrInvalidInput, o.maxImageBytes>>20)
		}
	case types.InputAudio:
		if len(req.Content) > o.maxAudioBytes {
			return fmt.Errorf("%w: audio exceeds %d MiB limit", types.ErrInvalidInput, o.maxAudioBytes>>20)
		}
	}

	return validateQueryType(req)
}

// validateQueryType rejects query type overrides that conflict with the
// input modality. Image content only carries disease detection, audio
// only transcription.
func validateQueryType(req *types.Request) error {
	if req.QueryType == "" || req.QueryType == types.IntentUnknown {
		return nil
	}
	switch req.QueryType {
	case types.IntentDiseaseDetection:
		if req.InputType != types.InputImage {
			return fmt.Errorf("%w: disease detection requires image input, got %s", types.ErrInvalidInput, req.InputType)
		}
	case types.IntentTranscription:
		if req.InputType != types.InputAudio {
			return fmt.Errorf("%w: transcription requires audio input, got %s", types.ErrInvalidInput, req.InputType)
		}
	case types.IntentGovernmentSchemes:
		if req.InputType != types.InputText {
			return fmt.Errorf("%w: query type %s conflicts with %s input", types.ErrInvalidInput, req.QueryType, req.InputType)
		}
	}
	return nil
}

// resolveSession honors a supplied session id when it resolves, reuses
// the channel's session key when one is set, and otherwise mints a fresh
// session keyed on the request id. A failing store yields a best-effort
// id so the answer still goes out.
func (o *Orchestrator) resolveSession(ctx context.Context, req *types.Request) types.SessionID {
	if req.SessionID != "" {
		if _, err := o.sessions.Get(ctx, req.SessionID); err == nil {
			return req.SessionID
		}
		slog.Warn("supplied session not found, minting fresh", "session_id", req.SessionID)
	}

	key := req.SessionKey
	if key == "" {
		key = types.NewSessionKey("user", req.UserID, string(req.ID))
	}
	id, err := o.sessions.ResolveOrCreate(ctx, key, req.UserID)
	if err != nil {
		slog.Error("session store unavailable, continuing with unpersisted id", "error", err)
		return types.NewSessionID()
	}
	return id
}

// resolveIntent applies the fast-path guard rules, falling back to the
// classifier for undetermined text. The classification is non-nil only
// on the slow path.
func (o *Orchestrator) resolveIntent(ctx context.Context, req *types.Request) (types.Intent, *types.Classification) {
	if intent, rule, ok := resolveFastPath(req); ok {
		o.observe("identified intent %s (%s)", intent, rule)
		return intent, nil
	}

	classification := o.classifier.Classify(ctx, req.Text())
	o.observe("identified intent %s (classifier, %s confidence)", classification.Intent, classification.Confidence)
	return classification.Intent, &classification
}

// dispatch invokes exactly one specialist and maps its result, or its
// failure, into a HandlerResult. Content a specialist rejects as
// malformed surfaces as ErrInvalidInput before any gateway call, so a
// retry would never succeed; it is propagated rather than degraded.
func (o *Orchestrator) dispatch(ctx context.Context, req *types.Request, intent types.Intent, classification *types.Classification) (types.HandlerResult, error) {
	switch intent {
	case types.IntentDiseaseDetection:
		o.observe("calling disease detection specialist")
		analysis, err := o.disease.Analyze(ctx, req.Content, req.TextDescription)
		if errors.Is(err, types.ErrInvalidInput) {
			return types.HandlerResult{}, err
		}
		if err != nil {
			slog.Warn("disease analysis failed", "error", err, "request_id", req.ID)
			return fallbackResult(degradedMessage(err, "I couldn't analyze the image right now. Please try again in a few minutes."), classification), nil
		}
		return types.HandlerResult{Kind: types.ResultDisease, Disease: analysis}, nil

	case types.IntentGovernmentSchemes:
		o.observe("calling government schemes specialist")
		answer, err := o.schemes.Answer(ctx, schemeQuery(req), req.Language)
		if errors.Is(err, types.ErrInvalidInput) {
			return types.HandlerResult{}, err
		}
		if err != nil {
			slog.Warn("scheme answer failed", "error", err, "request_id", req.ID)
			return fallbackResult(degradedMessage(err, "I couldn't look up schemes right now. Please try again in a few minutes."), classification), nil
		}
		return types.HandlerResult{Kind: types.ResultSchemes, Schemes: answer}, nil

	case types.IntentTranscription:
		o.observe("calling transcription specialist")
		return types.HandlerResult{Kind: types.ResultTranscription, Transcription: o.transcriber.Transcribe(ctx, req.Content, req.Language)}, nil

	default:
		message := "I'm not sure what you're asking. I can help with crop disease photos, government scheme questions, and voice messages."
		return fallbackResult(message, classification), nil
	}
}

// schemeQuery prefers the text content, falling back to the description
// for non-text modalities routed here by an explicit override.
func schemeQuery(req *types.Request) string {
	if req.InputType == types.InputText {
		return req.Text()
	}
	return req.TextDescription
}

func fallbackResult(message string, classification *types.Classification) types.HandlerResult {
	return types.HandlerResult{
		Kind:     types.ResultFallback,
		Fallback: &types.Fallback{Message: message, Classification: classification},
	}
}

// degradedMessage appends a timeout hint when the failure was a
// deadline, otherwise returns the base message.
func degradedMessage(err error, base string) string {
	if errors.Is(err, types.ErrGatewayTimeout) {
		return base + " The analysis service took too long to respond."
	}
	return base
}

// recordTurn appends the turn and advances the session counter.
// Persistence failure is logged and reported, never fatal.
func (o *Orchestrator) recordTurn(ctx context.Context, req *types.Request, env *types.ResponseEnvelope) {
	o.observe("recording turn")
	turn := &types.Turn{
		ID:             types.NewTurnID(),
		SessionID:      env.SessionID,
		RequestID:      req.ID,
		InputType:      req.InputType,
		UserID:         req.UserID,
		Language:       req.Language,
		Intent:         env.IntentUsed,
		Classification: env.Classification,
		Result:         env.Result,
		At:             time.Now(),
	}
	if err := o.turns.Append(ctx, turn); err != nil {
		slog.Error("turn append failed, answer still returned", "error", err, "session_id", env.SessionID)
		return
	}
	if err := o.sessions.Touch(ctx, env.SessionID, turn.Seq); err != nil {
		slog.Warn("session touch failed", "error", err, "session_id", env.SessionID)
	}
}
