// internal/server/server.go
package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/user/kisanmitra/internal/orchestrator"
	"github.com/user/kisanmitra/internal/types"
)

// Server is the HTTP boundary for the assistant.
type Server struct {
	orch      *orchestrator.Orchestrator
	sessions  types.SessionStore
	turns     types.TurnStore
	retriever types.Retriever
	mux       *http.ServeMux
}

// NewServer creates the HTTP boundary wired to the orchestrator and stores.
func NewServer(orch *orchestrator.Orchestrator, sessions types.SessionStore, turns types.TurnStore, retriever types.Retriever) *Server {
	s := &Server{
		orch:      orch,
		sessions:  sessions,
		turns:     turns,
		retriever: retriever,
		mux:       http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /query", s.handleQuery)
	s.mux.HandleFunc("GET /api/sessions", s.handleAPISessions)
	s.mux.HandleFunc("GET /api/sessions/", s.handleAPISessionTurns)
	return s
}

// ServeHTTP delegates to the internal mux, implementing http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	corpus := 0
	if s.retriever != nil {
		if n, err := s.retriever.Count(r.Context()); err == nil {
			corpus = n
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"services": map[string]any{
			"orchestrator": "ok",
			"corpus_documents": corpus,
		},
		"capabilities": []string{
			string(types.IntentDiseaseDetection),
			string(types.IntentGovernmentSchemes),
			string(types.IntentTranscription),
		},
	})
}

// queryRequest is the JSON body for POST /query. Content carries raw
// text, or base64 for image and audio input.
type queryRequest struct {
	InputType       string `json:"inputType"`
	Content         string `json:"content"`
	UserID          string `json:"userId"`
	Language        string `json:"language"`
	TextDescription string `json:"textDescription,omitempty"`
	QueryType       string `json:"queryType,omitempty"`
	SessionID       string `json:"sessionId,omitempty"`
}

type queryResponse struct {
	SessionID      string                `json:"session_id"`
	IntentUsed     string                `json:"intent_used"`
	AgentResponse  types.HandlerResult   `json:"agent_response"`
	Classification *types.Classification `json:"classification,omitempty"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var body queryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req, err := buildRequest(&body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	env, err := s.orch.Handle(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, types.ErrGatewayTimeout), errors.Is(err, types.ErrGatewayFailure):
			writeError(w, http.StatusBadGateway, "analysis service unavailable")
		default:
			slog.Error("query failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		SessionID:      string(env.SessionID),
		IntentUsed:     string(env.IntentUsed),
		AgentResponse:  env.Result,
		Classification: env.Classification,
	})
}

// buildRequest decodes the wire body into a core request, base64
// decoding binary content.
func buildRequest(body *queryRequest) (*types.Request, error) {
	inputType := types.InputType(body.InputType)

	var content []byte
	switch inputType {
	case types.InputImage, types.InputAudio:
		decoded, err := base64.StdEncoding.DecodeString(body.Content)
		if err != nil {
			return nil, errors.New("content must be base64 for " + body.InputType + " input")
		}
		content = decoded
	default:
		content = []byte(body.Content)
	}

	return &types.Request{
		ID:              types.NewRequestID(),
		InputType:       inputType,
		Content:         content,
		TextDescription: body.TextDescription,
		UserID:          body.UserID,
		Language:        body.Language,
		QueryType:       types.Intent(body.QueryType),
		SessionID:       types.SessionID(body.SessionID),
	}, nil
}

type sessionResponse struct {
	SessionID   string `json:"session_id"`
	SessionKey  string `json:"session_key"`
	UserID      string `json:"user_id"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
	TurnCount   int64  `json:"turn_count"`
	LastTurnSeq int64  `json:"last_turn_seq"`
}

func (s *Server) handleAPISessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessions, err := s.sessions.List(ctx)
	if err != nil {
		slog.Error("list sessions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	result := make([]sessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		count, err := s.turns.Count(ctx, sess.SessionID)
		if err != nil {
			slog.Warn("count turns failed", "session_id", sess.SessionID, "error", err)
		}
		result = append(result, sessionResponse{
			SessionID:   string(sess.SessionID),
			SessionKey:  string(sess.SessionKey),
			UserID:      sess.UserID,
			Status:      sess.Status,
			CreatedAt:   sess.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			UpdatedAt:   sess.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
			TurnCount:   count,
			LastTurnSeq: sess.LastTurnSeq,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt > result[j].UpdatedAt
	})

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAPISessionTurns(w http.ResponseWriter, r *http.Request) {
	// Path: /api/sessions/{id}/turns
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) < 2 || parts[1] != "turns" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	sessionID := types.SessionID(parts[0])

	limit := 200
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			limit = n
		}
	}

	turns, err := s.turns.Tail(r.Context(), sessionID, limit)
	if err != nil {
		slog.Error("tail turns failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if turns == nil {
		turns = []*types.Turn{}
	}

	writeJSON(w, http.StatusOK, turns)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
