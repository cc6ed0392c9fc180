package identity

import (
	"context"
	"sync"
)

// notifier fans auth-state changes out to listeners from a single
// goroutine, so a listener never sees two notifications at once.
type notifier struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int

	events chan func(context.Context) *Identity
}

func newNotifier() *notifier {
	ctx, cancel := context.WithCancel(context.Background())
	n := &notifier{
		ctx:       ctx,
		cancel:    cancel,
		listeners: make(map[int]Listener),
		events:    make(chan func(context.Context) *Identity, 16),
	}
	go n.run()
	return n
}

func (n *notifier) run() {
	for {
		select {
		case <-n.ctx.Done():
			return
		case next := <-n.events:
			id := next(n.ctx)
			if n.ctx.Err() != nil {
				return
			}
			n.mu.Lock()
			fns := make([]Listener, 0, len(n.listeners))
			for _, fn := range n.listeners {
				fns = append(fns, fn)
			}
			n.mu.Unlock()
			for _, fn := range fns {
				fn(id)
			}
		}
	}
}

func (n *notifier) subscribe(fn Listener) func() {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.listeners[id] = fn
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.listeners, id)
			n.mu.Unlock()
		})
	}
}

// enqueue schedules resolve to run on the dispatch goroutine; its result is
// delivered to every listener registered at that time.
func (n *notifier) enqueue(resolve func(context.Context) *Identity) {
	select {
	case n.events <- resolve:
	case <-n.ctx.Done():
	}
}

func (n *notifier) publish(id *Identity) {
	n.enqueue(func(context.Context) *Identity { return id })
}

func (n *notifier) close() {
	n.cancel()
}
