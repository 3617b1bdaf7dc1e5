package tokenstore

import (
	"context"
	"sync"
)

const watchBuffer = 16

// hub fans store changes out to in-process watchers.
type hub struct {
	mu   sync.Mutex
	subs map[chan Change]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[chan Change]struct{})}
}

func (h *hub) subscribe(ctx context.Context) <-chan Change {
	ch := make(chan Change, watchBuffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, ch)
		close(ch)
		h.mu.Unlock()
	}()

	return ch
}

// publish never blocks; a watcher that falls behind drops changes.
func (h *hub) publish(changes ...Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		for _, c := range changes {
			select {
			case ch <- c:
			default:
			}
		}
	}
}
