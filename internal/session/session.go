package session

import "github.com/r0d10nq/dimon/internal/llm"

func (s *Session) AddMessage(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, llm.Message{Role: role, Content: content})
	if len(s.messages) > maxHistory {
		s.messages = s.messages[len(s.messages)-maxHistory:]
	}
}

func (s *Session) Messages() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]llm.Message, len(s.messages))
	copy(copied, s.messages)

	return copied
}

// Lock serializes processing for this user. Updates for different users
// proceed in parallel, updates for the same user queue up here.
func (s *Session) Lock() {
	s.processing.Lock()
}

func (s *Session) Unlock() {
	s.processing.Unlock()
}

// TryLock is the non-blocking variant for callers that prefer to drop work
// instead of queueing behind a slow turn.
func (s *Session) TryLock() bool {
	return s.processing.TryLock()
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

func (s *Store) Get(sessionID string) *Session {
	s.mu.RLock()

	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()

	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok = s.sessions[sessionID]; ok {
		return sess
	}

	sess = &Session{}
	s.sessions[sessionID] = sess

	return sess
}
