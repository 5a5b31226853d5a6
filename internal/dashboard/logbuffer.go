package dashboard

import (
	"bytes"
	"sync"
)

// logHistory is how many recent log lines the panel replays to a fresh
// websocket subscriber.
const logHistory = 200

// LogBuffer keeps a bounded ring of recent log lines and fans new lines out
// to websocket subscribers. It implements io.Writer so it can be layered
// under the service logger.
type LogBuffer struct {
	mu   sync.Mutex
	ring []string
	subs map[chan string]struct{}
}

func NewLogBuffer() *LogBuffer {
	return &LogBuffer{subs: make(map[chan string]struct{})}
}

// Write splits p into lines and records each one. It never fails; a slow
// subscriber just misses lines.
func (b *LogBuffer) Write(p []byte) (int, error) {
	for _, line := range bytes.Split(bytes.TrimRight(p, "\n"), []byte{'\n'}) {
		if len(line) == 0 {
			continue
		}
		b.append(string(line))
	}
	return len(p), nil
}

func (b *LogBuffer) append(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.ring = append(b.ring, line)
	if len(b.ring) > logHistory {
		b.ring = b.ring[len(b.ring)-logHistory:]
	}
	for ch := range b.subs {
		select {
		case ch <- line:
		default:
		}
	}
}

// History returns a copy of the buffered lines, oldest first.
func (b *LogBuffer) History() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.ring))
	copy(out, b.ring)
	return out
}

// Subscribe registers a live feed. The returned cancel func must be called
// when the subscriber goes away.
func (b *LogBuffer) Subscribe() (<-chan string, func()) {
	ch := make(chan string, 64)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()
	}
	return ch, cancel
}
