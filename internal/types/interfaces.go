// internal/types/interfaces.go
package types

import (
	"context"
)

type SessionStore interface {
	// ResolveOrCreate returns the session for the given key, minting a new
	// session id if none exists yet.
	ResolveOrCreate(ctx context.Context, key SessionKey, userID string) (SessionID, error)
	Get(ctx context.Context, id SessionID) (*SessionIndex, error)
	List(ctx context.Context) ([]*SessionIndex, error)
	Touch(ctx context.Context, id SessionID, lastTurnSeq int64) error
}

type TurnStore interface {
	Append(ctx context.Context, turn *Turn) error
	Tail(ctx context.Context, sessionID SessionID, limit int) ([]*Turn, error)
	Count(ctx context.Context, sessionID SessionID) (int64, error)
}

type Retriever interface {
	Search(ctx context.Context, query string, topK int) ([]ScoredDocument, error)
	Add(ctx context.Context, docs []Document) error
	Count(ctx context.Context) (int, error)
}
