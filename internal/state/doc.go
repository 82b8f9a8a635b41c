// Package state provides filesystem and redis backed storage implementations.
package state

import "github.com/user/kisanmitra/internal/types"

// Compile-time interface compliance checks.
var _ types.SessionStore = (*SessionStore)(nil)
var _ types.TurnStore = (*TurnStore)(nil)
var _ types.SessionStore = (*RedisStore)(nil)
var _ types.TurnStore = (*RedisStore)(nil)
