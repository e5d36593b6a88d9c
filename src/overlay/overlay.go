package overlay

import (
	"fmt"
	"log"

	"scorewatch/src/messages"
)

// Consume drains one surface channel and renders each message. Actual window
// rendering lives outside this program; the consumer formats what a renderer
// would show and keeps the channel from backing up. It returns when the
// channel closes or a Shutdown message arrives.
func Consume(ch <-chan messages.Envelope) {
	for envelope := range ch {
		switch msg := envelope.Message.(type) {
		case messages.OverlayToast:
			log.Printf("Overlay: %s", formatToast(msg))
		case messages.TextNotice:
			log.Printf("Overlay: [%s] %s", msg.Color, msg.Text)
		case messages.SoundCue:
			log.Printf("Overlay: chime")
		case messages.SettingsChanged:
			log.Printf("Overlay: settings reloaded")
		case messages.Shutdown:
			return
		default:
			log.Printf("Overlay: ignoring %s", envelope.Message.Type())
		}
	}
}

// formatToast renders one play-result toast as a single line.
func formatToast(t messages.OverlayToast) string {
	if t.Result == nil {
		return fmt.Sprintf("%s %s", t.Game, t.Variant)
	}
	who := t.PlayerName
	if who == "" {
		who = "you"
	}
	line := fmt.Sprintf("%s %s: %s scored %.2f%%", t.Game, t.Variant, who, t.Result.Score)
	if t.HasBest {
		if t.Result.Score > t.BestScore {
			line += fmt.Sprintf(" (new best, was %.2f%%)", t.BestScore)
		} else {
			line += fmt.Sprintf(" (best %.2f%%)", t.BestScore)
		}
	}
	if t.HasTop {
		line += fmt.Sprintf(" [top %.2f%%]", t.TopScore)
	}
	return line
}
