// internal/types/models.go
package types

import (
	"time"
)

// InputType declares how Request.Content is encoded.
type InputType string

const (
	InputText  InputType = "text"
	InputImage InputType = "image"
	InputAudio InputType = "audio"
)

// Valid reports whether the input type is one of the three known kinds.
func (t InputType) Valid() bool {
	switch t {
	case InputText, InputImage, InputAudio:
		return true
	}
	return false
}

// Intent is the classified purpose of a request.
type Intent string

const (
	IntentDiseaseDetection  Intent = "disease_detection"
	IntentGovernmentSchemes Intent = "government_schemes"
	IntentTranscription     Intent = "transcription"
	IntentUnknown           Intent = "unknown"
)

// Valid reports whether the intent is one of the enumerated values.
func (i Intent) Valid() bool {
	switch i {
	case IntentDiseaseDetection, IntentGovernmentSchemes, IntentTranscription, IntentUnknown:
		return true
	}
	return false
}

// Confidence is the coarse three-level confidence used by handlers.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Severity grades how far a detected disease has progressed.
type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Request is one multimodal user request. Content holds raw bytes: the
// boundary decodes base64 for image/audio before constructing a Request.
// SessionKey is set by channel adapters that want session continuity
// across requests; when empty a fresh session is minted per request.
type Request struct {
	ID              RequestID  `json:"id"`
	InputType       InputType  `json:"input_type"`
	Content         []byte     `json:"-"`
	TextDescription string     `json:"text_description,omitempty"`
	UserID          string     `json:"user_id"`
	Language        string     `json:"language"`
	QueryType       Intent     `json:"query_type,omitempty"`
	SessionID       SessionID  `json:"session_id,omitempty"`
	SessionKey      SessionKey `json:"-"`
}

// Text returns the content as a string for text requests.
func (r *Request) Text() string {
	return string(r.Content)
}

// Classification is the classifier's verdict on a text request.
type Classification struct {
	Intent     Intent     `json:"intent"`
	Score      float64    `json:"score"`
	Confidence Confidence `json:"confidence"`
	Reasoning  string     `json:"reasoning"`
}

// OrganicSolution is one organic treatment option for a detected disease.
type OrganicSolution struct {
	Name        string `json:"name"`
	Preparation string `json:"preparation"`
	Application string `json:"application"`
}

// DiseaseAnalysis is the disease analyzer's structured diagnosis. List
// fields are never nil after normalization so the envelope shape stays
// uniform for rendering.
type DiseaseAnalysis struct {
	DiseaseName      string            `json:"disease_name"`
	Confidence       Confidence        `json:"confidence"`
	Severity         Severity          `json:"severity"`
	SymptomsObserved []string          `json:"symptoms_observed"`
	ImmediateAction  string            `json:"immediate_action"`
	TreatmentSummary string            `json:"treatment_summary"`
	OrganicSolutions []OrganicSolution `json:"organic_solutions"`
	PreventionTips   []string          `json:"prevention_tips"`
	CostEstimate     string            `json:"cost_estimate"`
	SuccessTimeline  string            `json:"success_timeline"`
	WarningSigns     string            `json:"warning_signs"`
}

// Scheme describes one government scheme entry in a SchemeAnswer.
type Scheme struct {
	Name               string `json:"name"`
	Description        string `json:"description"`
	Eligibility        string `json:"eligibility,omitempty"`
	Benefits           string `json:"benefits,omitempty"`
	ApplicationProcess string `json:"application_process,omitempty"`
}

// SchemeAnswer is the scheme advisor's retrieval-augmented answer.
// Message uses markdown-lite markers (**bold**, *italic*).
type SchemeAnswer struct {
	Message    string     `json:"message"`
	Schemes    []Scheme   `json:"schemes"`
	Sources    []string   `json:"sources"`
	Confidence Confidence `json:"confidence"`
}

// Transcription is the speech transcriber's result. Transcript is empty
// whenever Success is false, and Error is populated only on failure.
type Transcription struct {
	Success    bool    `json:"success"`
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
	Error      string  `json:"error,omitempty"`
}

// Fallback is the generic result used when no specialist matched
// confidently or a handler degraded.
type Fallback struct {
	Message        string          `json:"message"`
	Classification *Classification `json:"classification,omitempty"`
}

// ResultKind discriminates the HandlerResult variants.
type ResultKind string

const (
	ResultDisease       ResultKind = "disease_analysis"
	ResultSchemes       ResultKind = "scheme_answer"
	ResultTranscription ResultKind = "transcription"
	ResultFallback      ResultKind = "fallback"
)

// HandlerResult is a tagged union: exactly one variant pointer is non-nil
// and Kind names it.
type HandlerResult struct {
	Kind          ResultKind       `json:"kind"`
	Disease       *DiseaseAnalysis `json:"disease_analysis,omitempty"`
	Schemes       *SchemeAnswer    `json:"scheme_answer,omitempty"`
	Transcription *Transcription   `json:"transcription,omitempty"`
	Fallback      *Fallback        `json:"fallback,omitempty"`
}

// ResponseEnvelope is the uniform shape returned to the caller for every
// intent.
type ResponseEnvelope struct {
	SessionID      SessionID       `json:"session_id"`
	IntentUsed     Intent          `json:"intent_used"`
	Result         HandlerResult   `json:"handler_result"`
	Classification *Classification `json:"classification,omitempty"`
}

// Turn records one classify-and-dispatch cycle. Immutable once appended.
type Turn struct {
	ID             TurnID          `json:"id"`
	SessionID      SessionID       `json:"session_id"`
	RequestID      RequestID       `json:"request_id"`
	Seq            int64           `json:"seq"`
	InputType      InputType       `json:"input_type"`
	UserID         string          `json:"user_id"`
	Language       string          `json:"language"`
	Intent         Intent          `json:"intent"`
	Classification *Classification `json:"classification,omitempty"`
	Result         HandlerResult   `json:"result"`
	At             time.Time       `json:"at"`
}

// SessionIndex is the session record owned by the session store.
type SessionIndex struct {
	SessionID   SessionID  `json:"session_id"`
	SessionKey  SessionKey `json:"session_key"`
	UserID      string     `json:"user_id"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	LastTurnSeq int64      `json:"last_turn_seq"`
}

// Document is one entry in the scheme corpus.
type Document struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Source   string `json:"source"`
	Category string `json:"category,omitempty"`
}

// ScoredDocument is a retrieval hit with its relevance score in [0,1].
type ScoredDocument struct {
	Document
	Score float64 `json:"score"`
}
