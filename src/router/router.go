package router

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"scorewatch/src/messages"
)

// surfaceInfo holds the delivery channel for one registered surface.
type surfaceInfo struct {
	ch     chan messages.Envelope
	active bool
}

// Router fans messages out to UI surfaces. The dispatcher only ever sends;
// each surface consumer owns its receive channel.
type Router struct {
	surfaces    map[string]*surfaceInfo
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	logMessages bool
}

// New creates a message router.
func New() *Router {
	ctx, cancel := context.WithCancel(context.Background())
	return &Router{
		surfaces:    make(map[string]*surfaceInfo),
		ctx:         ctx,
		cancel:      cancel,
		logMessages: true,
	}
}

// Register adds a surface and returns its receive channel.
func (r *Router) Register(surfaceID string, bufferSize int) (<-chan messages.Envelope, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.surfaces[surfaceID]; exists {
		return nil, fmt.Errorf("surface %s already registered", surfaceID)
	}
	ch := make(chan messages.Envelope, bufferSize)
	r.surfaces[surfaceID] = &surfaceInfo{ch: ch, active: true}
	log.Printf("Router: Registered surface %s with buffer size %d", surfaceID, bufferSize)
	return ch, nil
}

// Unregister removes a surface and closes its channel.
func (r *Router) Unregister(surfaceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if info, exists := r.surfaces[surfaceID]; exists {
		info.active = false
		close(info.ch)
		delete(r.surfaces, surfaceID)
		log.Printf("Router: Unregistered surface %s", surfaceID)
	}
}

// Send delivers a message to one surface. Delivery blocks at most five
// seconds; a surface that stops draining loses messages instead of wedging
// the dispatcher.
func (r *Router) Send(envelope messages.Envelope) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.logMessages {
		log.Printf("Router: %s -> %s: %s", envelope.From, envelope.To, envelope.Message.Type())
	}

	info, exists := r.surfaces[envelope.To]
	if !exists {
		return fmt.Errorf("surface %s not found", envelope.To)
	}
	if !info.active {
		return fmt.Errorf("surface %s is not active", envelope.To)
	}

	select {
	case info.ch <- envelope:
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout sending to surface %s", envelope.To)
	case <-r.ctx.Done():
		return fmt.Errorf("router is shutting down")
	}
}

// SetMessageLogging enables or disables per-message logging.
func (r *Router) SetMessageLogging(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logMessages = enabled
}

// Shutdown closes every surface channel and stops the router.
func (r *Router) Shutdown() {
	log.Printf("Router: Shutting down...")
	r.cancel()

	r.mu.Lock()
	defer r.mu.Unlock()
	for surfaceID, info := range r.surfaces {
		if info.active {
			info.active = false
			close(info.ch)
			log.Printf("Router: Closed channel for surface %s", surfaceID)
		}
	}
	r.surfaces = make(map[string]*surfaceInfo)
}

// WaitForMessage waits for a specific message type on a channel with timeout.
func WaitForMessage(ch <-chan messages.Envelope, messageType string, timeout time.Duration) (messages.Envelope, error) {
	deadline := time.After(timeout)
	for {
		select {
		case envelope := <-ch:
			if envelope.Message.Type() == messageType {
				return envelope, nil
			}
		case <-deadline:
			return messages.Envelope{}, fmt.Errorf("timeout waiting for message type %s", messageType)
		}
	}
}

// DrainChannel drains all buffered messages from a channel.
func DrainChannel(ch <-chan messages.Envelope) int {
	count := 0
	for {
		select {
		case <-ch:
			count++
		default:
			return count
		}
	}
}
