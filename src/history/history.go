package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"scorewatch/src/catalog"
)

// Play is one locally recorded submission.
type Play struct {
	Game     catalog.Game
	Title    string
	Button   int
	Pattern  string
	Score    float64
	MaxCombo int
	PlayedAt time.Time
}

// Store keeps the local play history that backs personal-best lookups.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS plays (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	game       TEXT NOT NULL,
	title      TEXT NOT NULL,
	button     INTEGER NOT NULL,
	pattern    TEXT NOT NULL,
	score      REAL NOT NULL,
	max_combo  INTEGER NOT NULL,
	played_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_plays_chart ON plays (game, title, button, pattern);
`

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends one play.
func (s *Store) Record(ctx context.Context, p Play) error {
	if p.PlayedAt.IsZero() {
		p.PlayedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO plays (game, title, button, pattern, score, max_combo, played_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(p.Game), p.Title, p.Button, p.Pattern, p.Score, p.MaxCombo,
		p.PlayedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("history: record play: %w", err)
	}
	return nil
}

// Best returns the highest recorded score for one chart. ok is false when
// the chart has never been played.
func (s *Store) Best(ctx context.Context, game catalog.Game, title string, button int, pattern string) (score float64, ok bool, err error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT MAX(score) FROM plays WHERE game = ? AND title = ? AND button = ? AND pattern = ?`,
		string(game), title, button, pattern)
	var best sql.NullFloat64
	if err := row.Scan(&best); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("history: best score: %w", err)
	}
	if !best.Valid {
		return 0, false, nil
	}
	return best.Float64, true, nil
}
