package progress

import "sync"

// Async delivers messages to a downstream reporter on a single goroutine, in
// the order Report was called. Report never drops a message: when the buffer
// is full it blocks until the consumer catches up. Close drains pending
// messages before returning.
type Async struct {
	next Reporter
	ch   chan string
	done chan struct{}

	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

// NewAsync starts the delivery goroutine. buffer <= 0 uses 64.
func NewAsync(next Reporter, buffer int) *Async {
	if buffer <= 0 {
		buffer = 64
	}
	a := &Async{
		next: OrNop(next),
		ch:   make(chan string, buffer),
		done: make(chan struct{}),
	}
	go a.loop()
	return a
}

func (a *Async) loop() {
	defer close(a.done)
	for msg := range a.ch {
		a.next.Report(msg)
	}
}

// Report enqueues msg. Messages reported after Close are delivered
// synchronously so nothing is lost during shutdown.
func (a *Async) Report(msg string) {
	a.mu.RLock()
	if a.closed {
		a.mu.RUnlock()
		a.next.Report(msg)
		return
	}
	a.ch <- msg
	a.mu.RUnlock()
}

// Close stops accepting queued messages and waits for the queue to drain.
func (a *Async) Close() {
	a.once.Do(func() {
		a.mu.Lock()
		a.closed = true
		close(a.ch)
		a.mu.Unlock()
	})
	<-a.done
}
