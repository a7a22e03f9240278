package session

import (
	"sync"

	"github.com/r0d10nq/dimon/internal/llm"
)

// maxHistory bounds the rolling transcript kept per user. Older turns live
// in the memory store, not here.
const maxHistory = 20

// Session is the in-memory state for one user on one platform: a short
// rolling transcript for prompt continuity and the lock that serializes all
// profile and cooldown mutation for that user.
type Session struct {
	mu       sync.Mutex
	messages []llm.Message

	processing sync.Mutex
}

type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}
