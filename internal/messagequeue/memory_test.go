package messagequeue

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryPublishConsume(t *testing.T) {
	q := NewMemory(4)
	defer q.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	body := []byte(`{"id":"t1"}`)
	if err := q.Publish(ctx, "tour_requests", body); err != nil {
		t.Fatalf("publish: %v", err)
	}
	body[0] = 'X'

	got := make(chan string, 1)
	go q.Consume(ctx, "tour_requests", func(_ context.Context, b []byte) error {
		got <- string(b)
		return nil
	})

	select {
	case msg := <-got:
		if msg != `{"id":"t1"}` {
			t.Fatalf("unexpected message %q", msg)
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for message")
	}
}

func TestMemoryClose(t *testing.T) {
	q := NewMemory(1)
	errc := make(chan error, 1)
	go func() {
		errc <- q.Consume(context.Background(), "q", func(context.Context, []byte) error { return nil })
	}()

	q.Close()
	select {
	case err := <-errc:
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("expected ErrClosed, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("consumer did not stop on Close")
	}
	if err := q.Publish(context.Background(), "q", nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed on publish, got %v", err)
	}
}
