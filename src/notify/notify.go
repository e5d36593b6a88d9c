package notify

import (
	"context"
	"log"
	"time"

	"scorewatch/src/archive"
	"scorewatch/src/catalog"
	"scorewatch/src/messages"
	"scorewatch/src/sched"
)

// DefaultStagger is the delay between consecutive versus toasts so they do
// not all land on screen at once.
const DefaultStagger = 2 * time.Second

// BestFunc looks up the player's historical best for one chart. ok is false
// when there is no history for it.
type BestFunc func(ctx context.Context, game catalog.Game, title string, button int, pattern string) (score float64, ok bool, err error)

// TopFunc looks up the community high score for one chart.
type TopFunc func(ctx context.Context, game catalog.Game, title string, button int, pattern string) (float64, error)

// SendFunc delivers one envelope to a surface.
type SendFunc func(messages.Envelope) error

// Scheduler schedules the delayed overlay toasts. Production uses
// *sched.Queue; tests substitute a recording fake.
type Scheduler interface {
	After(d time.Duration, fn func()) *sched.Task
}

// Dispatcher fans a play result out to the primary window (sound cue) and
// the overlay (visual toast). Every lookup it performs is best-effort: a
// failure trims the notification, it never blocks it.
type Dispatcher struct {
	Send    SendFunc
	Queue   Scheduler
	Catalog *catalog.Catalog
	Best    BestFunc
	Top     TopFunc
	Stagger time.Duration
}

// New builds a dispatcher with the default stagger interval.
func New(send SendFunc, queue Scheduler, cat *catalog.Catalog, best BestFunc, top TopFunc) *Dispatcher {
	return &Dispatcher{
		Send:    send,
		Queue:   queue,
		Catalog: cat,
		Best:    best,
		Top:     top,
		Stagger: DefaultStagger,
	}
}

// Dispatch routes one play result to both surfaces according to its screen
// variant.
func (d *Dispatcher) Dispatch(ctx context.Context, game catalog.Game, res *archive.PlayResult) {
	switch res.ScreenType {
	case catalog.VariantVersus:
		d.dispatchVersus(ctx, game, res)
	case catalog.VariantCollection:
		d.send(messages.SurfaceMain, messages.SoundCue{})
		d.send(messages.SurfaceOverlay, messages.TextNotice{Text: "Collection updated", Color: "green"})
	default:
		if !res.IsVerified {
			d.send(messages.SurfaceOverlay, messages.TextNotice{Text: "Score could not be verified", Color: "red"})
			return
		}
		toast := messages.OverlayToast{
			Game:       game,
			Variant:    res.ScreenType,
			Result:     res,
			PlayerName: "",
		}
		d.enrich(ctx, game, res.Song.Title, res.Button, res.Pattern, &toast)
		d.send(messages.SurfaceMain, messages.SoundCue{})
		d.send(messages.SurfaceOverlay, toast)
	}
}

// dispatchVersus notifies each scored sub-result independently. Overlay
// toasts are staggered by index so they appear one after another; sound cues
// go out immediately. A lookup failure for one player never holds back the
// others.
func (d *Dispatcher) dispatchVersus(ctx context.Context, game catalog.Game, res *archive.PlayResult) {
	for i, entry := range res.VersusData {
		if entry.Score <= 0 {
			continue
		}
		toast := messages.OverlayToast{
			Game:       game,
			Variant:    res.ScreenType,
			Result:     res,
			PlayerName: entry.Name,
		}
		if d.Catalog.HistoryEnabled(game) && d.Best != nil {
			if best, ok, err := d.Best(ctx, game, entry.Song.Title, entry.Button, entry.Pattern); err != nil {
				log.Printf("Notify: best-score lookup for %s failed: %v", entry.Name, err)
			} else if ok {
				toast.BestScore, toast.HasBest = best, true
			}
		}
		d.send(messages.SurfaceMain, messages.SoundCue{})
		delayed := toast
		d.Queue.After(time.Duration(i)*d.stagger(), func() {
			d.send(messages.SurfaceOverlay, delayed)
		})
	}
}

// Failure sends a single generic failure notice to the overlay. No sound.
func (d *Dispatcher) Failure(text string) {
	d.send(messages.SurfaceOverlay, messages.TextNotice{Text: text, Color: "red"})
}

// enrich attaches historical-best and community-top scores when available.
func (d *Dispatcher) enrich(ctx context.Context, game catalog.Game, title string, button int, pattern string, toast *messages.OverlayToast) {
	if d.Catalog.HistoryEnabled(game) && d.Best != nil {
		if best, ok, err := d.Best(ctx, game, title, button, pattern); err != nil {
			log.Printf("Notify: best-score lookup failed: %v", err)
		} else if ok {
			toast.BestScore, toast.HasBest = best, true
		}
	}
	if d.Top != nil {
		if top, err := d.Top(ctx, game, title, button, pattern); err != nil {
			log.Printf("Notify: top-score lookup failed: %v", err)
		} else {
			toast.TopScore, toast.HasTop = top, true
		}
	}
}

func (d *Dispatcher) stagger() time.Duration {
	if d.Stagger > 0 {
		return d.Stagger
	}
	return DefaultStagger
}

func (d *Dispatcher) send(surface string, msg messages.Message) {
	if err := d.Send(messages.Envelope{From: "dispatcher", To: surface, Message: msg}); err != nil {
		log.Printf("Notify: send %s to %s failed: %v", msg.Type(), surface, err)
	}
}
