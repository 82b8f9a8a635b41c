// internal/state/redis.go
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/kisanmitra/internal/types"
)

const (
	redisSessionHash = "kisanmitra:sessions"
	redisTurnPrefix  = "kisanmitra:turns:"
	redisTurnTTL     = 30 * 24 * time.Hour
)

// RedisStore implements both SessionStore and TurnStore on a shared redis
// client. Sessions live in one hash keyed by SessionKey; turns live in a
// per-session list with a TTL refreshed on every append.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a redis-backed store.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Ping verifies the redis connection.
func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: ping redis: %v", types.ErrSessionStore, err)
	}
	return nil
}

func turnsKey(id types.SessionID) string {
	return redisTurnPrefix + string(id)
}

// ResolveOrCreate returns the SessionID for the given key, creating a new session if needed.
func (r *RedisStore) ResolveOrCreate(ctx context.Context, key types.SessionKey, userID string) (types.SessionID, error) {
	data, err := r.rdb.HGet(ctx, redisSessionHash, string(key)).Bytes()
	if err == nil {
		var sess types.SessionIndex
		if err := json.Unmarshal(data, &sess); err != nil {
			return "", fmt.Errorf("%w: unmarshal session: %v", types.ErrSessionStore, err)
		}
		return sess.SessionID, nil
	}
	if !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%w: get session: %v", types.ErrSessionStore, err)
	}

	now := time.Now()
	sess := &types.SessionIndex{
		SessionID:  types.NewSessionID(),
		SessionKey: key,
		UserID:     userID,
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.saveSession(ctx, sess); err != nil {
		return "", err
	}
	return sess.SessionID, nil
}

func (r *RedisStore) saveSession(ctx context.Context, sess *types.SessionIndex) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.rdb.HSet(ctx, redisSessionHash, string(sess.SessionKey), data).Err(); err != nil {
		return fmt.Errorf("%w: save session: %v", types.ErrSessionStore, err)
	}
	return nil
}

// Get returns the session with the given ID.
func (r *RedisStore) Get(ctx context.Context, id types.SessionID) (*types.SessionIndex, error) {
	sessions, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, sess := range sessions {
		if sess.SessionID == id {
			return sess, nil
		}
	}
	return nil, fmt.Errorf("session not found: %s", id)
}

// List returns all sessions.
func (r *RedisStore) List(ctx context.Context) ([]*types.SessionIndex, error) {
	entries, err := r.rdb.HGetAll(ctx, redisSessionHash).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: list sessions: %v", types.ErrSessionStore, err)
	}

	sessions := make([]*types.SessionIndex, 0, len(entries))
	for _, data := range entries {
		var sess types.SessionIndex
		if err := json.Unmarshal([]byte(data), &sess); err != nil {
			return nil, fmt.Errorf("%w: unmarshal session: %v", types.ErrSessionStore, err)
		}
		sessions = append(sessions, &sess)
	}
	return sessions, nil
}

// Touch records that the session handled a turn.
func (r *RedisStore) Touch(ctx context.Context, id types.SessionID, lastTurnSeq int64) error {
	sess, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	sess.UpdatedAt = time.Now()
	if lastTurnSeq > sess.LastTurnSeq {
		sess.LastTurnSeq = lastTurnSeq
	}
	return r.saveSession(ctx, sess)
}

// Append adds a turn to the session's list, skipping request ids that are
// already recorded. The list TTL is refreshed on every append.
func (r *RedisStore) Append(ctx context.Context, turn *types.Turn) error {
	existing, err := r.readTurns(ctx, turn.SessionID)
	if err != nil {
		return err
	}
	for _, prev := range existing {
		if prev.RequestID == turn.RequestID {
			turn.Seq = prev.Seq
			return nil
		}
	}
	turn.Seq = int64(len(existing)) + 1

	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}
	key := turnsKey(turn.SessionID)
	if err := r.rdb.RPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("%w: append turn: %v", types.ErrSessionStore, err)
	}
	if err := r.rdb.Expire(ctx, key, redisTurnTTL).Err(); err != nil {
		return fmt.Errorf("%w: expire turns: %v", types.ErrSessionStore, err)
	}
	return nil
}

func (r *RedisStore) readTurns(ctx context.Context, sessionID types.SessionID) ([]*types.Turn, error) {
	entries, err := r.rdb.LRange(ctx, turnsKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: read turns: %v", types.ErrSessionStore, err)
	}

	turns := make([]*types.Turn, 0, len(entries))
	for _, data := range entries {
		var turn types.Turn
		if err := json.Unmarshal([]byte(data), &turn); err != nil {
			return nil, fmt.Errorf("%w: unmarshal turn: %v", types.ErrSessionStore, err)
		}
		turns = append(turns, &turn)
	}
	return turns, nil
}

// Tail returns the last N turns for the given session.
func (r *RedisStore) Tail(ctx context.Context, sessionID types.SessionID, limit int) ([]*types.Turn, error) {
	turns, err := r.readTurns(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return turns, nil
}

// Count returns the number of turns for the given session.
func (r *RedisStore) Count(ctx context.Context, sessionID types.SessionID) (int64, error) {
	count, err := r.rdb.LLen(ctx, turnsKey(sessionID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: count turns: %v", types.ErrSessionStore, err)
	}
	return count, nil
}
