package catalog

import (
	_ "embed"
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// Game identifies a supported game by its short code.
type Game string

const (
	// GameDMRV is the primary game. All screen variants are available.
	GameDMRV Game = "DMRV"
	// GameWJMX is the secondary game. Only the result screen is recognized,
	// and score history is kept server-side only.
	GameWJMX Game = "WJMX"
)

// Screen variant names shared across the pipeline. The catalog file may
// define more; these are the ones other packages branch on.
const (
	VariantResult     = "result"
	VariantSelect     = "select"
	VariantCollection = "collection"
	VariantOpenSelect = "openSelect"
	VariantVersus     = "versus"
)

// Rect is a rectangle in source-image pixel coordinates. Rectangles are
// authored against the full-resolution capture and are never scaled.
type Rect struct {
	Left   int `toml:"left"`
	Top    int `toml:"top"`
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Valid reports whether the rectangle has a usable geometry.
func (r Rect) Valid() bool {
	return r.Left >= 0 && r.Top >= 0 && r.Width > 0 && r.Height > 0
}

// MatchRule decides whether recognized text identifies a screen variant.
// Exactly one of Keywords or Token is set.
type MatchRule struct {
	// Keywords is an ordered list for containment matching. The recognized
	// text (upper-cased, trimmed) must contain at least one entry.
	Keywords []string `toml:"keywords,omitempty"`
	// Token is an exact match against the recognized text after upper-casing,
	// trimming and stripping internal spaces.
	Token string `toml:"token,omitempty"`
}

// Screen is one recognizable screen variant: the crop fed to OCR plus the
// rule that identifies it. Screens are tried in catalog order.
type Screen struct {
	Name     string    `toml:"name"`
	Sampling Rect      `toml:"sampling"`
	Rule     MatchRule `toml:"rule"`
}

// ProfileRegions holds the privacy rectangles for one screen variant.
type ProfileRegions struct {
	My    Rect `toml:"my"`
	Other Rect `toml:"other"`
}

type gameEntry struct {
	Code    string                    `toml:"code"`
	History bool                      `toml:"history"`
	Screens []Screen                  `toml:"screens"`
	Privacy map[string]ProfileRegions `toml:"privacy"`
}

type catalogFile struct {
	Games []gameEntry `toml:"games"`
}

// Catalog is the immutable per-game screen registry. It is loaded once at
// startup and shared read-only across captures.
type Catalog struct {
	screens map[Game][]Screen
	privacy map[Game]map[string]ProfileRegions
	history map[Game]bool
}

//go:embed regions.toml
var regionsTOML []byte

// Load parses and validates the embedded region tables. A malformed or
// incomplete table is a startup error, never a runtime surprise.
func Load() (*Catalog, error) {
	return parse(regionsTOML)
}

func parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("catalog: parse regions: %w", err)
	}
	if len(file.Games) == 0 {
		return nil, fmt.Errorf("catalog: no games defined")
	}

	c := &Catalog{
		screens: make(map[Game][]Screen),
		privacy: make(map[Game]map[string]ProfileRegions),
		history: make(map[Game]bool),
	}
	for _, g := range file.Games {
		game := Game(g.Code)
		if g.Code == "" {
			return nil, fmt.Errorf("catalog: game with empty code")
		}
		if _, dup := c.screens[game]; dup {
			return nil, fmt.Errorf("catalog: duplicate game %s", g.Code)
		}
		if len(g.Screens) == 0 {
			return nil, fmt.Errorf("catalog: game %s has no screens", g.Code)
		}
		seen := make(map[string]bool)
		for _, s := range g.Screens {
			if err := validateScreen(game, s, seen); err != nil {
				return nil, err
			}
			seen[s.Name] = true
		}
		for name, pr := range g.Privacy {
			if !pr.My.Valid() || !pr.Other.Valid() {
				return nil, fmt.Errorf("catalog: game %s variant %s: invalid privacy rectangle", g.Code, name)
			}
		}
		c.screens[game] = g.Screens
		c.privacy[game] = g.Privacy
		c.history[game] = g.History
	}
	return c, nil
}

func validateScreen(game Game, s Screen, seen map[string]bool) error {
	if s.Name == "" {
		return fmt.Errorf("catalog: game %s: screen with empty name", game)
	}
	if seen[s.Name] {
		return fmt.Errorf("catalog: game %s: duplicate screen %s", game, s.Name)
	}
	if !s.Sampling.Valid() {
		return fmt.Errorf("catalog: game %s screen %s: invalid sampling rectangle", game, s.Name)
	}
	hasKeywords := len(s.Rule.Keywords) > 0
	hasToken := s.Rule.Token != ""
	if hasKeywords == hasToken {
		return fmt.Errorf("catalog: game %s screen %s: rule needs exactly one of keywords or token", game, s.Name)
	}
	return nil
}

// Screens returns the screen variants of a game in precedence order.
func (c *Catalog) Screens(game Game) []Screen {
	return c.screens[game]
}

// Privacy returns the privacy rectangles for one screen variant. The second
// result is false when the variant carries no privacy regions, in which case
// the redaction step is skipped for it.
func (c *Catalog) Privacy(game Game, variant string) (ProfileRegions, bool) {
	pr, ok := c.privacy[game][variant]
	return pr, ok
}

// HistoryEnabled reports whether a game keeps a local score history that
// notifications may be enriched from.
func (c *Catalog) HistoryEnabled(game Game) bool {
	return c.history[game]
}

// Known reports whether the game code exists in the catalog.
func (c *Catalog) Known(game Game) bool {
	_, ok := c.screens[game]
	return ok
}
