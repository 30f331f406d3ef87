package render

import "sync"

// DefaultTranscriptLimit bounds the in-memory output.
const DefaultTranscriptLimit = 2000

// Transcript is the block list behind the full-screen view. Once the limit is
// reached the oldest blocks are dropped.
type Transcript struct {
	mu     sync.Mutex
	blocks []Block
	limit  int
}

func NewTranscript(limit int) *Transcript {
	if limit <= 0 {
		limit = DefaultTranscriptLimit
	}
	return &Transcript{limit: limit}
}

func (t *Transcript) Append(b Block) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.blocks = append(t.blocks, b)
	if over := len(t.blocks) - t.limit; over > 0 {
		t.blocks = append(t.blocks[:0], t.blocks[over:]...)
	}
}

func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.blocks = nil
}

// Blocks returns a snapshot.
func (t *Transcript) Blocks() []Block {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Block, len(t.blocks))
	copy(out, t.blocks)
	return out
}

func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.blocks)
}

var _ Output = (*Transcript)(nil)
