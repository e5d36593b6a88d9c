package eventloop

import (
	"context"
	"image"
	"log"
	"sync"
	"time"

	"scorewatch/src/config"
	"scorewatch/src/pipeline"
	"scorewatch/src/screenshot"
	"scorewatch/src/worker"
)

// CaptureFunc grabs one full-resolution frame.
type CaptureFunc func() (image.Image, error)

// Loop is the single-threaded coordinator of the watch cycle: tick, capture,
// hand the frame to the pipeline, act on the outcome. It owns the upload
// gate for the whole cycle, which is what makes the at-most-one-upload
// invariant hold across overlapping captures.
type Loop struct {
	pipe    *pipeline.Pipeline
	pool    *worker.Pool
	capture CaptureFunc
	results chan pipeline.Outcome
	reload  chan struct{}
	gate    pipeline.UploadGate

	mu  sync.RWMutex
	cfg *config.Settings
}

// New creates a watch loop around a pipeline and initial settings.
func New(pipe *pipeline.Pipeline, cfg *config.Settings) *Loop {
	return &Loop{
		pipe:    pipe,
		pool:    worker.New(1),
		capture: func() (image.Image, error) { return screenshot.Capture() },
		results: make(chan pipeline.Outcome, 4),
		reload:  make(chan struct{}, 1),
		cfg:     cfg,
	}
}

// SetCapture swaps the capture source (tests use a canned frame).
func (l *Loop) SetCapture(fn CaptureFunc) { l.capture = fn }

// UpdateSettings installs fresh settings; the next tick picks them up. Safe
// to call from the settings watcher goroutine.
func (l *Loop) UpdateSettings(cfg *config.Settings) {
	l.mu.Lock()
	l.cfg = cfg
	l.mu.Unlock()
	select {
	case l.reload <- struct{}{}:
	default:
	}
}

func (l *Loop) settings() *config.Settings {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

// Run watches the screen until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer l.pool.Close()

	ticker := time.NewTicker(time.Duration(l.settings().Interval()) * time.Millisecond)
	defer ticker.Stop()

	log.Printf("Loop: watching every %dms", l.settings().Interval())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.reload:
			ticker.Reset(time.Duration(l.settings().Interval()) * time.Millisecond)
			log.Printf("Loop: interval now %dms", l.settings().Interval())
		case <-ticker.C:
			l.tick(ctx)
		case out := <-l.results:
			l.handleOutcome(out)
		}
	}
}

// tick grabs one frame and submits it. The pool's single-slot queue drops
// the frame when the previous capture is still being processed.
func (l *Loop) tick(ctx context.Context) {
	cfg := l.settings()
	if !cfg.Session.SignedIn() {
		return
	}
	img, err := l.capture()
	if err != nil {
		log.Printf("Loop: capture failed: %v", err)
		return
	}
	req := pipeline.Request{
		Image:   img,
		Game:    cfg.Game,
		Session: cfg.Session,
		Options: pipeline.CaptureOptions{
			SaveImage: cfg.SaveImages,
			Policy:    cfg.Privacy,
		},
		Enabled: cfg.EnabledRegions(l.pipe.Catalog),
		Gate:    &l.gate,
	}
	submitted := l.pool.Submit(ctx, func(ctx context.Context) {
		l.results <- l.pipe.ProcessCapture(ctx, req)
	})
	if !submitted {
		log.Printf("Loop: busy, dropping frame")
	}
}

// handleOutcome applies the gate-reset rule: a closed gate plus a frame with
// no recognized screen means the result screen was left, so the next one
// may upload again.
func (l *Loop) handleOutcome(out pipeline.Outcome) {
	switch {
	case out.Status == pipeline.StatusWaiting && !out.Matched && l.gate.Uploaded():
		log.Printf("Loop: result screen gone, reopening gate")
		l.gate.Reset()
	case out.Status == pipeline.StatusAccepted:
		log.Printf("Loop: play accepted (score %.0f)", scoreOf(out))
	case out.Status == pipeline.StatusRejected:
		log.Printf("Loop: capture rejected: %s", out.Err)
	}
}

func scoreOf(out pipeline.Outcome) float64 {
	if out.Result == nil {
		return 0
	}
	return out.Result.Score
}
