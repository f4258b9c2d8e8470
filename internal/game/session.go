// internal/game/session.go
//
// Game session for one player on one device.
// Responsibilities:
//   - Hold the target word, submitted rows and the active input buffer.
//   - Validate and resolve guesses (length, dictionary, terminal rounds).
//   - Advance unlimited mode and persist the player's record.
//   - Roll daily mode over to the next word when the calendar day changes.
//
// A Session is not safe for concurrent use; callers serialize input.
package game

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

const (
	DefaultRows = 6
	MinRows     = 3
	MaxRows     = 8
)

var (
	ErrInvalidLength   = errors.New("not enough letters")
	ErrNotInDictionary = errors.New("not in word list")
	ErrSessionTerminal = errors.New("round is over, come back tomorrow")
	ErrInvalidKey      = errors.New("invalid key")

	// ErrNoRecord is returned by Persister.Load when nothing was saved yet.
	ErrNoRecord = errors.New("no saved record")
)

// Options tune a new session. Zero values fall back to the defaults.
type Options struct {
	Rows    int
	MinRows int
	MaxRows int
	Scoring Scoring
	Clock   func() time.Time
	Logger  *zerolog.Logger
}

// Outcome describes an accepted guess.
type Outcome struct {
	Row    Row          `json:"row"`
	Status Status       `json:"status"`
	Mode   Mode         `json:"mode"`
	Record PlayerRecord `json:"playerRecord"`
	// Answer is set once the round is resolved.
	Answer string `json:"answer,omitempty"`
	// NextWordIn is set when a daily round is resolved.
	NextWordIn time.Duration `json:"nextWordIn,omitempty"`
}

// dailyBoard keeps the daily round while unlimited mode is active, so that
// switching back on the same day does not allow a replay.
type dailyBoard struct {
	day    int
	rows   []Row
	status Status
	valid  bool
}

// Session holds the state of a single player's game.
type Session struct {
	src      WordSource
	persist  Persister
	evaluate func(guess, target string) []Mark
	clock    func() time.Time
	log      zerolog.Logger

	minRows, maxRows int

	mode     Mode
	record   Record
	firstRun bool
	visited  bool // a record exists in the store, or must not be replaced

	target   string
	day      int // daily day number the target belongs to
	rows     []Row
	buffer   []byte
	status   Status
	rowCount int
	parked   dailyBoard
}

// NewSession loads the persisted record and opens the first round.
// A missing record starts a first run; the default record is written on the
// player's first input, not here. An unreadable record starts with empty
// counters but is never overwritten by the defaults.
// p may be nil, in which case nothing is persisted.
func NewSession(ctx context.Context, src WordSource, p Persister, opts Options) (*Session, error) {
	s := &Session{
		src:      src,
		persist:  p,
		evaluate: opts.Scoring.evaluator(),
		clock:    opts.Clock,
		minRows:  opts.MinRows,
		maxRows:  opts.MaxRows,
		status:   StatusContinue,
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if opts.Logger != nil {
		s.log = *opts.Logger
	} else {
		s.log = zerolog.Nop()
	}
	if s.minRows <= 0 {
		s.minRows = MinRows
	}
	if s.maxRows < s.minRows {
		s.maxRows = max(MaxRows, s.minRows)
	}
	rows := opts.Rows
	if rows == 0 {
		rows = DefaultRows
	}
	s.rowCount = s.clamp(rows)

	s.loadRecord(ctx)
	s.mode = ModeDaily
	if s.record.Unlimited {
		s.mode = ModeUnlimited
	}
	if err := s.newRound(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) loadRecord(ctx context.Context) {
	if s.persist == nil {
		s.firstRun = true
		return
	}
	rec, err := s.persist.Load(ctx)
	switch {
	case errors.Is(err, ErrNoRecord):
		s.firstRun = true
		return
	case err != nil:
		s.log.Warn().Err(err).Msg("load record, playing with defaults")
		s.visited = true
		return
	}
	rec.WordIndex = max(rec.WordIndex, 0)
	rec.PlayerRecord.Wins = max(rec.PlayerRecord.Wins, 0)
	rec.PlayerRecord.Losses = max(rec.PlayerRecord.Losses, 0)
	s.record = rec
	s.visited = true
}

func (s *Session) save(ctx context.Context) {
	if s.persist == nil {
		return
	}
	s.visited = true
	if err := s.persist.Save(ctx, s.record); err != nil {
		s.log.Warn().Err(err).Msg("save record")
	}
}

// markVisited writes the default record the first time a new player acts.
func (s *Session) markVisited(ctx context.Context) {
	if !s.visited {
		s.save(ctx)
	}
}

// newRound selects the target for the current mode and clears the board.
func (s *Session) newRound() error {
	s.rows = nil
	s.buffer = nil
	s.status = StatusContinue

	if s.mode == ModeUnlimited {
		w, err := s.src.ForIndex(s.record.WordIndex)
		if err != nil {
			return err
		}
		s.target = w
		return nil
	}

	now := s.clock()
	w, err := s.src.ForDay(now)
	if err != nil {
		return err
	}
	s.target = w
	s.day = s.src.Calendar().DayNumber(now)
	return nil
}

// refresh opens the next daily round once the calendar day has changed.
func (s *Session) refresh() {
	if s.mode != ModeDaily || s.src.Calendar().DayNumber(s.clock()) == s.day {
		return
	}
	if err := s.newRound(); err != nil {
		s.log.Warn().Err(err).Msg("daily rollover")
		return
	}
	s.log.Debug().Int("day", s.day).Msg("daily word rolled over")
}

// SubmitGuess validates candidate, evaluates it against the target and
// resolves the round when it is won or the last row is used. Rejections
// leave the session unchanged.
func (s *Session) SubmitGuess(ctx context.Context, candidate string) (Outcome, error) {
	s.refresh()
	s.markVisited(ctx)
	if s.status.Finished() {
		return Outcome{}, ErrSessionTerminal
	}
	guess := strings.ToLower(strings.TrimSpace(candidate))
	if utf8.RuneCountInString(guess) != s.src.Width() {
		return Outcome{}, ErrInvalidLength
	}
	if !isAlpha(guess) || !s.src.IsValidGuess(guess) {
		return Outcome{}, ErrNotInDictionary
	}

	marks := s.evaluate(guess, s.target)
	row := Row{Guess: guess, Tiles: make([]Tile, len(marks))}
	for i, m := range marks {
		row.Tiles[i] = Tile{Letter: guess[i : i+1], Mark: m}
	}
	s.rows = append(s.rows, row)
	s.buffer = nil

	status := StatusContinue
	switch {
	case guess == s.target || allCorrect(marks):
		status = StatusWin
	case len(s.rows) >= s.rowCount:
		status = StatusLoss
	}

	out := Outcome{Row: row, Status: status, Mode: s.mode}
	if status.Finished() {
		out.Answer = s.target
		s.resolve(ctx, &out)
	}
	out.Record = s.record.PlayerRecord
	return out, nil
}

// resolve finishes a won or lost round.
func (s *Session) resolve(ctx context.Context, out *Outcome) {
	s.log.Debug().
		Str("mode", string(s.mode)).
		Str("status", string(out.Status)).
		Int("guesses", len(s.rows)).
		Msg("round resolved")

	if s.mode == ModeDaily {
		s.status = out.Status
		out.NextWordIn = s.src.Calendar().UntilNextDay(s.clock())
		return
	}

	if out.Status == StatusWin {
		s.record.PlayerRecord.Wins++
	} else {
		s.record.PlayerRecord.Losses++
	}
	s.record.WordIndex++
	if err := s.newRound(); err != nil {
		s.log.Warn().Err(err).Int("wordIndex", s.record.WordIndex).Msg("next unlimited word")
	}
	s.save(ctx)
}

// SetRowCount clamps n to the allowed range and applies it. Changing the
// count clears a round in progress (same target); a resolved daily round
// keeps its board and the count applies from the next day.
func (s *Session) SetRowCount(n int) int {
	s.refresh()
	n = s.clamp(n)
	if n == s.rowCount {
		return n
	}
	s.rowCount = n
	if !s.status.Finished() && (len(s.rows) > 0 || len(s.buffer) > 0) {
		s.rows = nil
		s.buffer = nil
	}
	// A parked daily round in progress is reset the same way.
	if s.parked.valid && !s.parked.status.Finished() {
		s.parked.rows = nil
	}
	return n
}

// IncreaseRows adds one row, up to the maximum.
func (s *Session) IncreaseRows() int { return s.SetRowCount(s.rowCount + 1) }

// DecreaseRows removes one row, down to the minimum.
func (s *Session) DecreaseRows() int { return s.SetRowCount(s.rowCount - 1) }

func (s *Session) clamp(n int) int {
	return min(max(n, s.minRows), s.maxRows)
}

// ToggleMode switches between daily and unlimited mode.
func (s *Session) ToggleMode(ctx context.Context) error {
	if s.mode == ModeDaily {
		return s.SetMode(ctx, ModeUnlimited)
	}
	return s.SetMode(ctx, ModeDaily)
}

// SetMode switches to m, selects its target and persists the mode flag.
// A daily round left earlier the same day is restored rather than replayed.
func (s *Session) SetMode(ctx context.Context, m Mode) error {
	if m != ModeDaily && m != ModeUnlimited {
		return errors.New("game: unknown mode " + string(m))
	}
	s.refresh()
	if m == s.mode {
		return nil
	}

	if s.mode == ModeDaily {
		s.parked = dailyBoard{day: s.day, rows: s.rows, status: s.status, valid: true}
	}
	prev := s.mode
	s.mode = m
	if err := s.newRound(); err != nil {
		s.mode = prev
		return err
	}
	if m == ModeDaily && s.parked.valid && s.parked.day == s.day {
		s.rows, s.status = s.parked.rows, s.parked.status
	}
	if m == ModeDaily {
		s.parked = dailyBoard{}
	}

	s.record.Unlimited = m == ModeUnlimited
	s.save(ctx)
	return nil
}

// Mode returns the active mode.
func (s *Session) Mode() Mode { return s.mode }

// Status returns the status of the current round.
func (s *Session) Status() Status {
	s.refresh()
	return s.status
}

// Record returns a copy of the persisted progress.
func (s *Session) Record() Record { return s.record }

// FirstRun reports whether no record existed when the session started.
func (s *Session) FirstRun() bool { return s.firstRun }

// RowCount returns the configured number of rows.
func (s *Session) RowCount() int { return s.rowCount }

// Active returns the letters typed into the active row.
func (s *Session) Active() string { return string(s.buffer) }

// Rows returns a copy of the submitted rows of the current round.
func (s *Session) Rows() []Row {
	return append([]Row(nil), s.rows...)
}

// KeyStates returns the best mark seen for each letter this round.
func (s *Session) KeyStates() map[string]Mark {
	out := make(map[string]Mark)
	for _, r := range s.rows {
		for _, t := range r.Tiles {
			if t.Mark.rank() > out[t.Letter].rank() {
				out[t.Letter] = t.Mark
			}
		}
	}
	return out
}
