package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/MikeSquared-Agency/jarvis/internal/kv"
)

// DefaultKey is the slot that holds the serialized conversation.
const DefaultKey = "jarvis-messages"

// Store owns the ordered conversation and mirrors it to a durable slot.
type Store struct {
	slots  kv.Store
	key    string
	logger *slog.Logger

	mu       sync.RWMutex
	messages []Message
	loaded   bool
}

func NewStore(slots kv.Store, key string, logger *slog.Logger) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{slots: slots, key: key, logger: logger}
}

// Load restores the conversation from the durable slot. An absent or corrupt
// slot yields an empty conversation; corruption is logged, not returned.
// A backend read failure is returned and leaves the store un-loaded, so later
// appends will not overwrite the slot.
func (s *Store) Load(ctx context.Context) error {
	raw, ok, err := s.slots.Get(ctx, s.key)
	if err != nil {
		return fmt.Errorf("read %s: %w", s.key, err)
	}

	var msgs []Message
	if ok {
		msgs, err = decodeMessages(raw)
		if err != nil {
			s.logger.Warn("discarding unreadable conversation history", "key", s.key, "error", err)
			msgs = nil
		}
	}

	s.mu.Lock()
	s.messages = msgs
	s.loaded = true
	s.mu.Unlock()

	s.logger.Debug("conversation loaded", "key", s.key, "messages", len(msgs))
	return nil
}

// Loaded reports whether Load has completed.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Append adds msg to the end of the conversation and persists the whole
// conversation. Persistence is skipped until Load has completed.
func (s *Store) Append(ctx context.Context, msg Message) error {
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	if !s.loaded {
		s.mu.Unlock()
		return nil
	}
	raw, err := encodeMessages(s.messages)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if err := s.slots.Set(ctx, s.key, raw); err != nil {
		return fmt.Errorf("persist %s: %w", s.key, err)
	}
	return nil
}

// Reset empties the conversation and removes the durable slot.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.messages = nil
	s.mu.Unlock()

	if err := s.slots.Remove(ctx, s.key); err != nil {
		return fmt.Errorf("remove %s: %w", s.key, err)
	}
	return nil
}

// Size returns the number of messages.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Messages returns a copy of the conversation in display order.
func (s *Store) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}
