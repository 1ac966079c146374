package notify

import "sync"

const defaultBacklog = 1024

// backlog holds notifications the broker refused while its breaker is open.
// It is bounded: once full, the oldest notification gives way.
type backlog struct {
	mu      sync.Mutex
	limit   int
	queue   []Notification
	dropped int64
}

func newBacklog(limit int) *backlog {
	if limit <= 0 {
		limit = defaultBacklog
	}
	return &backlog{limit: limit}
}

func (b *backlog) push(n Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) == b.limit {
		b.queue = b.queue[1:]
		b.dropped++
	}
	b.queue = append(b.queue, n)
}

// take removes up to n notifications, oldest first.
func (b *backlog) take(n int) []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	n = min(n, len(b.queue))
	if n <= 0 {
		return nil
	}
	batch := make([]Notification, n)
	copy(batch, b.queue)
	b.queue = append(b.queue[:0:0], b.queue[n:]...)
	return batch
}

// restore returns a batch that failed to replay to the head of the queue.
// Whatever no longer fits is counted as dropped, newest first.
func (b *backlog) restore(batch []Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	room := b.limit - len(b.queue)
	if room < len(batch) {
		b.dropped += int64(len(batch) - room)
		batch = batch[:room]
	}
	b.queue = append(append(make([]Notification, 0, len(batch)+len(b.queue)), batch...), b.queue...)
}

func (b *backlog) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

func (b *backlog) droppedCount() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
