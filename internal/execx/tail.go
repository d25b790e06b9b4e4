package execx

import "sync"

// TailBuffer is an io.Writer that keeps only the last Max bytes written.
// Safe for concurrent use.
type TailBuffer struct {
	Max int

	mu  sync.Mutex
	buf []byte
}

// NewTailBuffer returns a buffer retaining at most max bytes (4096 when max <= 0).
func NewTailBuffer(max int) *TailBuffer {
	if max <= 0 {
		max = 4096
	}
	return &TailBuffer{Max: max}
}

func (t *TailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.Max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *TailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
