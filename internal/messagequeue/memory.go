package messagequeue

import (
	"context"
	"sync"
)

// Memory is an in-process MessageQueue used when no broker is configured
// and in tests. Messages are lost on restart.
type Memory struct {
	mu     sync.Mutex
	queues map[string]chan []byte
	size   int
	done   chan struct{}
	closed bool
}

// NewMemory creates a Memory queue; each named queue buffers up to size
// messages before Publish blocks.
func NewMemory(size int) *Memory {
	if size <= 0 {
		size = 64
	}
	return &Memory{queues: make(map[string]chan []byte), size: size, done: make(chan struct{})}
}

func (m *Memory) queue(name string) (chan []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	q, ok := m.queues[name]
	if !ok {
		q = make(chan []byte, m.size)
		m.queues[name] = q
	}
	return q, nil
}

func (m *Memory) Publish(ctx context.Context, queueName string, body []byte) error {
	q, err := m.queue(queueName)
	if err != nil {
		return err
	}
	msg := append([]byte(nil), body...)
	select {
	case q <- msg:
		return nil
	case <-m.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume delivers each message once; rejected messages are dropped.
func (m *Memory) Consume(ctx context.Context, queueName string, handler Handler) error {
	q, err := m.queue(queueName)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.done:
			return ErrClosed
		case body := <-q:
			_ = handler(ctx, body)
		}
	}
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}
