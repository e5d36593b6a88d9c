package messages

import (
	"scorewatch/src/archive"
	"scorewatch/src/catalog"
)

// Message is the base interface for all surface messages.
type Message interface {
	Type() string
}

// MessageType constants for type identification
const (
	TypeSoundCue        = "SoundCue"
	TypeOverlayToast    = "OverlayToast"
	TypeTextNotice      = "TextNotice"
	TypeSettingsChanged = "SettingsChanged"
	TypeShutdown        = "Shutdown"
)

// SoundCue - tells the primary window to play the result chime. No payload.
type SoundCue struct{}

func (m SoundCue) Type() string { return TypeSoundCue }

// OverlayToast - a visual result notification for the overlay surface.
// BestScore and TopScore are enrichment; HasBest/HasTop are false when the
// corresponding lookup failed or does not apply to the game.
type OverlayToast struct {
	Game       catalog.Game
	Variant    string
	Result     *archive.PlayResult
	PlayerName string
	BestScore  float64
	HasBest    bool
	TopScore   float64
	HasTop     bool
}

func (m OverlayToast) Type() string { return TypeOverlayToast }

// TextNotice - a plain text notice for the overlay surface (failures,
// collection events).
type TextNotice struct {
	Text  string
	Color string
}

func (m TextNotice) Type() string { return TypeTextNotice }

// SettingsChanged - emitted by the settings watcher after a reload.
type SettingsChanged struct{}

func (m SettingsChanged) Type() string { return TypeSettingsChanged }

// Shutdown - asks every surface consumer to drain and exit.
type Shutdown struct{}

func (m Shutdown) Type() string { return TypeShutdown }

// Envelope wraps a message with routing metadata.
type Envelope struct {
	From    string
	To      string
	Message Message
}

// Surface names.
const (
	SurfaceMain    = "main"
	SurfaceOverlay = "overlay"
)
