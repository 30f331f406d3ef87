// Package history keeps the command history and the up/down recall cursor.
package history

import "sync"

const (
	// MaxPersisted is how many of the newest entries survive a restart.
	MaxPersisted = 20
	// MaxEntries caps the in-memory list.
	MaxEntries = 500
)

// Buffer is shared by the view (recall) and the interpreter (record), so all
// access is guarded. The cursor is always in [0, Len()]; Len() means the edit
// line is fresh.
type Buffer struct {
	mu      sync.Mutex
	entries []string
	index   int
}

func New() *Buffer {
	return &Buffer{}
}

// Restore replaces the contents and parks the cursor at the end.
func (b *Buffer) Restore(entries []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = b.entries[:0]
	for _, e := range entries {
		if e != "" {
			b.entries = append(b.entries, e)
		}
	}
	b.trimLocked()
	b.index = len(b.entries)
}

// Record appends a command unless it is blank or repeats the newest entry.
// It reports whether the entry was added. The cursor is reset either way.
func (b *Buffer) Record(cmd string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	added := false
	if !isBlank(cmd) && (len(b.entries) == 0 || b.entries[len(b.entries)-1] != cmd) {
		b.entries = append(b.entries, cmd)
		b.trimLocked()
		added = true
	}
	b.index = len(b.entries)
	return added
}

// Prev moves the cursor back and returns the entry under it. ok is false when
// there is nothing older to show and the edit line should stay as is.
func (b *Buffer) Prev() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.entries) == 0 || b.index <= 0 {
		return "", false
	}
	b.index--
	return b.entries[b.index], true
}

// Next moves the cursor forward. Stepping past the newest entry parks the
// cursor at the end and yields an empty line.
func (b *Buffer) Next() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.index < len(b.entries)-1 {
		b.index++
		return b.entries[b.index]
	}
	b.index = len(b.entries)
	return ""
}

// Persisted returns a copy of the newest MaxPersisted entries.
func (b *Buffer) Persisted() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	start := 0
	if len(b.entries) > MaxPersisted {
		start = len(b.entries) - MaxPersisted
	}
	out := make([]string, len(b.entries)-start)
	copy(out, b.entries[start:])
	return out
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

func (b *Buffer) Index() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.index
}

func (b *Buffer) trimLocked() {
	if over := len(b.entries) - MaxEntries; over > 0 {
		b.entries = append(b.entries[:0], b.entries[over:]...)
	}
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
