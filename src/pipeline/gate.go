package pipeline

import "sync"

// UploadGate is the caller-owned flag that limits a capture cycle to one
// upload. The orchestrator only reads and sets it; resetting is entirely the
// caller's job (typically when classification reports the screen is gone).
// Overlapping invocations sharing one gate is what makes the at-most-one
// invariant hold, so the caller must pass the same gate for a whole cycle.
type UploadGate struct {
	mu       sync.Mutex
	uploaded bool
}

// Uploaded reports whether this cycle has already uploaded.
func (g *UploadGate) Uploaded() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.uploaded
}

// MarkUploaded closes the gate for the rest of the cycle.
func (g *UploadGate) MarkUploaded() {
	g.mu.Lock()
	g.uploaded = true
	g.mu.Unlock()
}

// Reset opens the gate for a new capture cycle.
func (g *UploadGate) Reset() {
	g.mu.Lock()
	g.uploaded = false
	g.mu.Unlock()
}
