package email

import (
	"context"
	"sync"
)

// MemorySender keeps sent messages in memory, it is used in tests.
// It is safe for concurrent use.
type MemorySender struct {
	mu       sync.Mutex
	messages []Message
	// FailFor makes Send return Err for these recipients.
	FailFor map[Address]struct{}
	Err     error
}

func NewMemorySender() *MemorySender {
	return &MemorySender{}
}

func (s *MemorySender) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.FailFor[msg.To]; ok {
		return s.Err
	}

	s.messages = append(s.messages, msg)
	return nil
}

// Messages returns a copy of all messages sent so far.
func (s *MemorySender) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}
