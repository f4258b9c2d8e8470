// internal/game/types.go
//
// Core type definitions for the game session.
// Defines:
//   - Mark: per-letter result of a guess.
//   - Mode: daily or unlimited play.
//   - Status: whether the current round continues or was won/lost.
//   - Tile/Row: one evaluated guess.
//   - Record: the persisted unlimited-mode progress.

package game

import (
	"context"
	"time"

	"github.com/robalobadob/wordle/apps/unlimited-server/internal/daily"
)

// Mark represents the evaluation result for a single letter in a guess.
// Values use the client's tile state names:
//   - "correct":   letter is in the correct position.
//   - "wrong-pos": letter exists in the target at another position.
//   - "wrong":     letter does not exist in the target.
//   - "":          not evaluated yet.
type Mark string

const (
	MarkUnset         Mark = ""
	MarkCorrect       Mark = "correct"
	MarkWrongPosition Mark = "wrong-pos"
	MarkAbsent        Mark = "wrong"
)

// rank orders marks for keyboard hints: correct beats wrong-pos beats wrong.
func (m Mark) rank() int {
	switch m {
	case MarkCorrect:
		return 3
	case MarkWrongPosition:
		return 2
	case MarkAbsent:
		return 1
	}
	return 0
}

// Mode selects how the target word is chosen.
type Mode string

const (
	ModeDaily     Mode = "daily"
	ModeUnlimited Mode = "unlimited"
)

// Status is the state of the current round after a transition.
type Status string

const (
	StatusContinue Status = "playing"
	StatusWin      Status = "won"
	StatusLoss     Status = "lost"
)

// Finished reports whether the round is resolved.
func (s Status) Finished() bool { return s == StatusWin || s == StatusLoss }

// Tile is one letter of a submitted guess.
type Tile struct {
	Letter string `json:"letter"`
	Mark   Mark   `json:"state"`
}

// Row is one submitted, evaluated guess.
type Row struct {
	Guess string `json:"guess"`
	Tiles []Tile `json:"tiles"`
}

// Marks returns the per-letter states of the row.
func (r Row) Marks() []Mark {
	out := make([]Mark, len(r.Tiles))
	for i, t := range r.Tiles {
		out[i] = t.Mark
	}
	return out
}

// PlayerRecord counts resolved unlimited-mode rounds.
type PlayerRecord struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
}

// Record is the persisted progress blob. It is overwritten wholesale on
// every save.
type Record struct {
	Unlimited    bool         `json:"unlimited"`
	WordIndex    int          `json:"wordIndex"`
	PlayerRecord PlayerRecord `json:"playerRecord"`
}

// Persister loads and saves the Record for one device. Load returns
// ErrNoRecord when nothing has been saved yet.
type Persister interface {
	Load(ctx context.Context) (Record, error)
	Save(ctx context.Context, r Record) error
}

// WordSource supplies targets and dictionary lookups. *words.Source
// satisfies it.
type WordSource interface {
	Width() int
	IsValidGuess(w string) bool
	ForIndex(index int) (string, error)
	ForDay(t time.Time) (string, error)
	Calendar() daily.Calendar
}
