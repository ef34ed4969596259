package appkafka

import (
	"errors"
	"sync"

	"github.com/segmentio/kafka-go"
)

// MockEventWriter records published events for assertions.
type MockEventWriter struct {
	mu              sync.Mutex
	WrittenMessages []kafka.Message
	ShouldFail      bool
}

func (m *MockEventWriter) WriteMessages(messages ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return errors.New("mock kafka write failed")
	}
	m.WrittenMessages = append(m.WrittenMessages, messages...)
	return nil
}

// Written returns a copy of all recorded messages.
func (m *MockEventWriter) Written() []kafka.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]kafka.Message, len(m.WrittenMessages))
	copy(out, m.WrittenMessages)
	return out
}

// Close is a no-op.
func (m *MockEventWriter) Close() error { return nil }
