package history

import (
	"context"
	"log"

	"scorewatch/src/archive"
	"scorewatch/src/catalog"
)

// Recorder adapts the store to the pipeline's after-upload hook. Recording
// is best-effort: a write failure is logged and forgotten, the play already
// lives in the remote archive.
type Recorder struct {
	Store *Store
}

// RecordResult appends verified chart plays. Versus and collection events
// carry no single chart for the player, so they are not recorded.
func (r Recorder) RecordResult(ctx context.Context, game catalog.Game, res *archive.PlayResult) {
	if r.Store == nil || res == nil || !res.IsVerified {
		return
	}
	switch res.ScreenType {
	case catalog.VariantVersus, catalog.VariantCollection:
		return
	}
	err := r.Store.Record(ctx, Play{
		Game:     game,
		Title:    res.Song.Title,
		Button:   res.Button,
		Pattern:  res.Pattern,
		Score:    res.Score,
		MaxCombo: res.MaxCombo,
	})
	if err != nil {
		log.Printf("History: record play: %v", err)
	}
}
