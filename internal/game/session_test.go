package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robalobadob/wordle/apps/unlimited-server/internal/daily"
	"github.com/robalobadob/wordle/apps/unlimited-server/internal/words"
)

// fakePersister is an in-memory Persister that can be told to fail.
type fakePersister struct {
	rec       *Record
	loadErr   error
	loadFails int // fail this many loads with loadErr, then recover
	saveErr   error
	saves     int
}

func (f *fakePersister) Load(ctx context.Context) (Record, error) {
	if f.loadErr != nil && f.loadFails > 0 {
		f.loadFails--
		return Record{}, f.loadErr
	}
	if f.rec == nil {
		return Record{}, ErrNoRecord
	}
	return *f.rec, nil
}

func (f *fakePersister) Save(ctx context.Context, r Record) error {
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.rec = &r
	return nil
}

// testClock is a settable clock, starting at noon on day 0.
type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func newClock() *testClock {
	return &testClock{now: time.Date(2022, time.March, 27, 12, 0, 0, 0, time.UTC)}
}

var testAnswers = []string{"crane", "slate", "pride", "helix"}

func newTestSession(t *testing.T, p Persister, clock *testClock, opts Options) *Session {
	t.Helper()
	cal := daily.NewCalendar(time.Date(2022, time.March, 27, 0, 0, 0, 0, time.UTC), time.UTC)
	src, err := words.New(testAnswers, []string{"crate", "adieu", "audio", "geese", "trace", "caret"}, 5, cal)
	if err != nil {
		t.Fatalf("words.New: %v", err)
	}
	opts.Clock = clock.Now
	s, err := NewSession(context.Background(), src, p, opts)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func mustSubmit(t *testing.T, s *Session, guess string) Outcome {
	t.Helper()
	out, err := s.SubmitGuess(context.Background(), guess)
	if err != nil {
		t.Fatalf("SubmitGuess(%q): %v", guess, err)
	}
	return out
}

func TestSubmitGuess_RejectsWrongLength(t *testing.T) {
	for n := MinRows; n <= MaxRows; n++ {
		s := newTestSession(t, nil, newClock(), Options{Rows: n})
		for _, g := range []string{"", "cran", "cranes", "ab"} {
			_, err := s.SubmitGuess(context.Background(), g)
			if !errors.Is(err, ErrInvalidLength) {
				t.Errorf("rows=%d SubmitGuess(%q) err %v, want ErrInvalidLength", n, g, err)
			}
		}
		if len(s.Rows()) != 0 {
			t.Errorf("rows=%d: rejected guesses were recorded", n)
		}
	}
}

func TestSubmitGuess_RejectsNotInDictionary(t *testing.T) {
	s := newTestSession(t, nil, newClock(), Options{})
	// "cranx" differs from the target by one letter but is not a word.
	for _, g := range []string{"cranx", "zzzzz", "cr4ne"} {
		_, err := s.SubmitGuess(context.Background(), g)
		if !errors.Is(err, ErrNotInDictionary) {
			t.Errorf("SubmitGuess(%q) err %v, want ErrNotInDictionary", g, err)
		}
	}
	if len(s.Rows()) != 0 || s.Status() != StatusContinue {
		t.Error("rejected guesses must not change the session")
	}
}

func TestSubmitGuess_CaseInsensitive(t *testing.T) {
	s := newTestSession(t, nil, newClock(), Options{})
	out := mustSubmit(t, s, " CRATE ")
	if out.Row.Guess != "crate" {
		t.Errorf("guess %q, want crate", out.Row.Guess)
	}
}

func TestDaily_SixMissesThenLoss(t *testing.T) {
	s := newTestSession(t, nil, newClock(), Options{})
	for i := 1; i <= 6; i++ {
		out := mustSubmit(t, s, "adieu")
		want := StatusContinue
		if i == 6 {
			want = StatusLoss
		}
		if out.Status != want {
			t.Fatalf("guess %d status %q, want %q", i, out.Status, want)
		}
		if i < 6 && out.Answer != "" {
			t.Errorf("guess %d leaked the answer", i)
		}
		if i == 6 {
			if out.Answer != "crane" {
				t.Errorf("answer %q, want crane", out.Answer)
			}
			if out.NextWordIn != 12*time.Hour {
				t.Errorf("NextWordIn %v, want 12h", out.NextWordIn)
			}
		}
	}
	if _, err := s.SubmitGuess(context.Background(), "crane"); !errors.Is(err, ErrSessionTerminal) {
		t.Errorf("submit after loss err %v, want ErrSessionTerminal", err)
	}
}

func TestDaily_WinIsTerminal(t *testing.T) {
	p := &fakePersister{}
	s := newTestSession(t, p, newClock(), Options{})
	out := mustSubmit(t, s, "crane")
	if out.Status != StatusWin {
		t.Fatalf("status %q, want won", out.Status)
	}
	if out.Record.Wins != 0 {
		t.Errorf("daily win changed wins to %d", out.Record.Wins)
	}
	if err := s.PressKey('a'); err != nil {
		t.Errorf("PressKey after win: %v", err)
	}
	if s.Active() != "" {
		t.Errorf("active %q, want input ignored", s.Active())
	}
	if _, err := s.SubmitGuess(context.Background(), "slate"); !errors.Is(err, ErrSessionTerminal) {
		t.Errorf("err %v, want ErrSessionTerminal", err)
	}
	if s.Record().WordIndex != 0 {
		t.Errorf("daily win advanced word index to %d", s.Record().WordIndex)
	}
	if v := s.View(); v.Answer != "crane" || v.Date != "2022-03-27" {
		t.Errorf("view answer %q date %q", v.Answer, v.Date)
	}
}

func TestDaily_RollsOverNextDay(t *testing.T) {
	clock := newClock()
	s := newTestSession(t, nil, clock, Options{})
	mustSubmit(t, s, "crane")

	clock.now = clock.now.Add(13 * time.Hour) // 01:00 on day 1
	if s.Status() != StatusContinue {
		t.Fatalf("status %q after day change, want playing", s.Status())
	}
	if len(s.Rows()) != 0 {
		t.Error("board not cleared on day change")
	}
	if out := mustSubmit(t, s, "slate"); out.Status != StatusWin {
		t.Errorf("day 1 status %q, want won with slate", out.Status)
	}
}

func TestUnlimited_WinAdvances(t *testing.T) {
	p := &fakePersister{rec: &Record{Unlimited: true}}
	s := newTestSession(t, p, newClock(), Options{})

	out := mustSubmit(t, s, "adieu")
	if out.Status != StatusContinue || out.Record.Wins != 0 || out.Record.Losses != 0 {
		t.Fatalf("continue changed counters: %+v", out)
	}

	out = mustSubmit(t, s, "crane")
	if out.Status != StatusWin || out.Answer != "crane" {
		t.Fatalf("outcome %+v, want win on crane", out)
	}
	if out.Record.Wins != 1 || out.Record.Losses != 0 {
		t.Errorf("record %+v, want 1 win", out.Record)
	}
	if got := s.Record().WordIndex; got != 1 {
		t.Errorf("word index %d, want 1", got)
	}
	if p.rec == nil || p.rec.WordIndex != 1 || p.rec.PlayerRecord.Wins != 1 || !p.rec.Unlimited {
		t.Errorf("persisted %+v", p.rec)
	}
	if len(s.Rows()) != 0 || s.Status() != StatusContinue {
		t.Error("next round should start on a clean board")
	}
	if out := mustSubmit(t, s, "slate"); out.Status != StatusWin {
		t.Errorf("second word status %q, want won with slate", out.Status)
	}
}

func TestUnlimited_LossAdvances(t *testing.T) {
	p := &fakePersister{rec: &Record{Unlimited: true, WordIndex: 1}}
	s := newTestSession(t, p, newClock(), Options{Rows: 3})

	var out Outcome
	for i := 0; i < 3; i++ {
		out = mustSubmit(t, s, "adieu")
	}
	if out.Status != StatusLoss || out.Answer != "slate" {
		t.Fatalf("outcome %+v, want loss on slate", out)
	}
	if out.Record.Losses != 1 || out.Record.Wins != 0 {
		t.Errorf("record %+v, want 1 loss", out.Record)
	}
	if got := s.Record().WordIndex; got != 2 {
		t.Errorf("word index %d, want 2", got)
	}
	if out.NextWordIn != 0 {
		t.Error("unlimited outcome should not carry a next-word timer")
	}
}

func TestUnlimited_WrapsPastEnd(t *testing.T) {
	p := &fakePersister{rec: &Record{Unlimited: true, WordIndex: len(testAnswers) - 1}}
	s := newTestSession(t, p, newClock(), Options{})
	mustSubmit(t, s, "helix")
	if out := mustSubmit(t, s, "crane"); out.Status != StatusWin {
		t.Errorf("status %q, want wrap to crane", out.Status)
	}
}

func TestNewSession_ResumesRecord(t *testing.T) {
	p := &fakePersister{rec: &Record{Unlimited: true, WordIndex: 3, PlayerRecord: PlayerRecord{Wins: 2, Losses: 1}}}
	s := newTestSession(t, p, newClock(), Options{})

	if s.Mode() != ModeUnlimited {
		t.Errorf("mode %q, want unlimited", s.Mode())
	}
	if s.FirstRun() {
		t.Error("FirstRun should be false with a saved record")
	}
	v := s.View()
	if v.WordIndex != 3 || v.Record.Wins != 2 || v.Record.Losses != 1 {
		t.Errorf("view %+v", v)
	}
	if p.saves != 0 {
		t.Errorf("resume saved %d times, want 0", p.saves)
	}
	if out := mustSubmit(t, s, "helix"); out.Status != StatusWin || out.Record.Wins != 3 {
		t.Errorf("outcome %+v, want win on helix with 3 wins", out)
	}
}

func TestNewSession_FirstRun(t *testing.T) {
	p := &fakePersister{}
	s := newTestSession(t, p, newClock(), Options{})
	if !s.FirstRun() {
		t.Error("FirstRun should be true without a record")
	}
	if s.Mode() != ModeDaily {
		t.Errorf("mode %q, want daily", s.Mode())
	}
	if p.saves != 0 {
		t.Errorf("opening a session saved %d times, want 0", p.saves)
	}

	ctx := context.Background()
	if _, err := s.Handle(ctx, PressEvent('c')); err != nil {
		t.Fatal(err)
	}
	if p.saves != 1 || p.rec == nil {
		t.Errorf("first input should save a default record, saves=%d", p.saves)
	}
	if _, err := s.Handle(ctx, PressEvent('r')); err != nil {
		t.Fatal(err)
	}
	if p.saves != 1 {
		t.Errorf("default record saved %d times, want once", p.saves)
	}
	if !s.FirstRun() {
		t.Error("FirstRun should stay true for the session's lifetime")
	}
}

func TestNewSession_LoadErrorStartsFresh(t *testing.T) {
	p := &fakePersister{loadErr: errors.New("disk on fire"), loadFails: 1}
	s := newTestSession(t, p, newClock(), Options{})
	if s.FirstRun() || s.Mode() != ModeDaily || s.Record() != (Record{}) {
		t.Errorf("load failure should fall back to defaults, got %+v firstRun=%v", s.Record(), s.FirstRun())
	}
}

func TestNewSession_LoadErrorKeepsStoredRecord(t *testing.T) {
	stored := Record{Unlimited: true, WordIndex: 3, PlayerRecord: PlayerRecord{Wins: 40, Losses: 7}}
	p := &fakePersister{rec: &stored, loadErr: errors.New("database is locked"), loadFails: 1}
	s := newTestSession(t, p, newClock(), Options{})
	if _, err := s.Handle(context.Background(), PressEvent('c')); err != nil {
		t.Fatal(err)
	}
	if p.saves != 0 || *p.rec != stored {
		t.Fatalf("stored record %+v after %d saves, want %+v untouched", *p.rec, p.saves, stored)
	}

	// The next session reads the record again.
	s = newTestSession(t, p, newClock(), Options{})
	if s.Mode() != ModeUnlimited || s.Record() != stored {
		t.Errorf("resumed %q %+v, want %+v", s.Mode(), s.Record(), stored)
	}
}

func TestNewSession_SanitizesRecord(t *testing.T) {
	p := &fakePersister{rec: &Record{Unlimited: true, WordIndex: -4, PlayerRecord: PlayerRecord{Wins: -1}}}
	s := newTestSession(t, p, newClock(), Options{})
	if r := s.Record(); r.WordIndex != 0 || r.PlayerRecord.Wins != 0 {
		t.Errorf("record %+v, want negatives clamped to 0", r)
	}
}

func TestNewSession_BeforeEpoch(t *testing.T) {
	cal := daily.NewCalendar(time.Date(2022, time.March, 27, 0, 0, 0, 0, time.UTC), time.UTC)
	src, _ := words.New(testAnswers, nil, 5, cal)
	early := func() time.Time { return time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC) }
	_, err := NewSession(context.Background(), src, nil, Options{Clock: early})
	if !errors.Is(err, words.ErrBeforeEpoch) {
		t.Errorf("err %v, want ErrBeforeEpoch", err)
	}
}

func TestSaveErrorDoesNotFailGuess(t *testing.T) {
	p := &fakePersister{rec: &Record{Unlimited: true}, saveErr: errors.New("read-only")}
	s := newTestSession(t, p, newClock(), Options{})
	out := mustSubmit(t, s, "crane")
	if out.Status != StatusWin || s.Record().PlayerRecord.Wins != 1 {
		t.Errorf("outcome %+v, want win recorded in memory", out)
	}
}

func TestInputBuffer(t *testing.T) {
	s := newTestSession(t, nil, newClock(), Options{})
	for _, r := range "CRATEX" {
		if err := s.PressKey(r); err != nil {
			t.Fatalf("PressKey(%q): %v", r, err)
		}
	}
	if s.Active() != "crate" {
		t.Fatalf("active %q, want crate (sixth letter ignored)", s.Active())
	}
	if err := s.PressKey('1'); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("PressKey('1') err %v, want ErrInvalidKey", err)
	}

	s.DeleteKey()
	s.DeleteKey()
	if s.Active() != "cra" {
		t.Errorf("active %q after two deletes, want cra", s.Active())
	}
	if _, err := s.Submit(context.Background()); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("short submit err %v, want ErrInvalidLength", err)
	}
	if s.Active() != "cra" {
		t.Errorf("rejected submit cleared the buffer: %q", s.Active())
	}

	for i := 0; i < 10; i++ {
		s.DeleteKey()
	}
	if s.Active() != "" {
		t.Errorf("active %q, want empty", s.Active())
	}
}

func TestHandle_Events(t *testing.T) {
	s := newTestSession(t, nil, newClock(), Options{})
	ctx := context.Background()
	for _, r := range "cranx" {
		if _, err := s.Handle(ctx, PressEvent(r)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.Handle(ctx, SubmitEvent()); !errors.Is(err, ErrNotInDictionary) {
		t.Fatalf("submit cranx err %v, want ErrNotInDictionary", err)
	}
	if _, err := s.Handle(ctx, DeleteEvent()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Handle(ctx, PressEvent('e')); err != nil {
		t.Fatal(err)
	}
	out, err := s.Handle(ctx, SubmitEvent())
	if err != nil {
		t.Fatalf("submit crane: %v", err)
	}
	if out == nil || out.Status != StatusWin {
		t.Fatalf("outcome %+v, want win", out)
	}
	if _, err := s.Handle(ctx, Event{Type: EventKey, Letter: "ab"}); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("multi-letter key err %v, want ErrInvalidKey", err)
	}
	if _, err := s.Handle(ctx, Event{Type: "jump"}); err == nil {
		t.Error("unknown event should fail")
	}
}

func TestSetRowCount_Clamps(t *testing.T) {
	s := newTestSession(t, nil, newClock(), Options{})
	if got := s.SetRowCount(0); got != MinRows {
		t.Errorf("SetRowCount(0) = %d, want %d", got, MinRows)
	}
	if got := s.SetRowCount(100); got != MaxRows {
		t.Errorf("SetRowCount(100) = %d, want %d", got, MaxRows)
	}
	if got := s.IncreaseRows(); got != MaxRows {
		t.Errorf("IncreaseRows at max = %d", got)
	}
	s.SetRowCount(MinRows)
	if got := s.DecreaseRows(); got != MinRows {
		t.Errorf("DecreaseRows at min = %d", got)
	}
	if got := s.IncreaseRows(); got != MinRows+1 {
		t.Errorf("IncreaseRows = %d, want %d", got, MinRows+1)
	}
}

func TestSetRowCount_ResetsRoundInProgress(t *testing.T) {
	s := newTestSession(t, nil, newClock(), Options{})
	mustSubmit(t, s, "adieu")
	_ = s.PressKey('c')

	s.SetRowCount(4)
	if len(s.Rows()) != 0 || s.Active() != "" {
		t.Error("row count change should clear the board")
	}
	// Same target after the reset.
	if out := mustSubmit(t, s, "crane"); out.Status != StatusWin {
		t.Errorf("status %q, want won", out.Status)
	}
}

func TestSetRowCount_NewCountLimitsRound(t *testing.T) {
	s := newTestSession(t, nil, newClock(), Options{})
	s.SetRowCount(3)
	mustSubmit(t, s, "adieu")
	mustSubmit(t, s, "adieu")
	if out := mustSubmit(t, s, "adieu"); out.Status != StatusLoss {
		t.Errorf("third miss status %q, want lost", out.Status)
	}
}

func TestSetRowCount_TerminalDailyKeepsBoard(t *testing.T) {
	s := newTestSession(t, nil, newClock(), Options{})
	mustSubmit(t, s, "crane")
	s.SetRowCount(4)
	if s.RowCount() != 4 {
		t.Errorf("row count %d, want 4", s.RowCount())
	}
	if len(s.Rows()) != 1 || s.Status() != StatusWin {
		t.Error("resolved daily board should be kept")
	}
}

func TestToggleMode(t *testing.T) {
	p := &fakePersister{}
	s := newTestSession(t, p, newClock(), Options{})
	ctx := context.Background()
	mustSubmit(t, s, "crane")

	if err := s.ToggleMode(ctx); err != nil {
		t.Fatal(err)
	}
	if s.Mode() != ModeUnlimited || s.Status() != StatusContinue {
		t.Fatalf("mode %q status %q after toggle", s.Mode(), s.Status())
	}
	if !p.rec.Unlimited {
		t.Error("toggle should persist the unlimited flag")
	}

	if err := s.ToggleMode(ctx); err != nil {
		t.Fatal(err)
	}
	if s.Status() != StatusWin {
		t.Errorf("status %q, want today's daily result restored", s.Status())
	}
	if p.rec.Unlimited {
		t.Error("toggle back should clear the unlimited flag")
	}
	if err := s.SetMode(ctx, "hard"); err == nil {
		t.Error("unknown mode should fail")
	}
}

func TestKeyStates_BestMarkWins(t *testing.T) {
	s := newTestSession(t, nil, newClock(), Options{})
	mustSubmit(t, s, "trace")
	mustSubmit(t, s, "caret")
	keys := s.KeyStates()
	want := map[string]Mark{
		"t": MarkAbsent,
		"r": MarkCorrect,
		"a": MarkCorrect,
		"c": MarkCorrect,
		"e": MarkCorrect,
	}
	for k, m := range want {
		if keys[k] != m {
			t.Errorf("key %q = %q, want %q", k, keys[k], m)
		}
	}
}

func TestClassicScoringOption(t *testing.T) {
	s := newTestSession(t, nil, newClock(), Options{Scoring: ScoringClassic})
	out := mustSubmit(t, s, "geese")
	if got := out.Row.Marks()[1]; got != MarkAbsent {
		t.Errorf("classic geese[1] = %q, want wrong", got)
	}
}

func TestSetRowCount_ResetsParkedDailyRound(t *testing.T) {
	s := newTestSession(t, nil, newClock(), Options{})
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		mustSubmit(t, s, "adieu")
	}
	if err := s.ToggleMode(ctx); err != nil {
		t.Fatal(err)
	}
	s.SetRowCount(3)
	if err := s.ToggleMode(ctx); err != nil {
		t.Fatal(err)
	}

	if len(s.Rows()) != 0 || s.Status() != StatusContinue {
		t.Fatalf("restored %d rows with status %q, want a cleared board", len(s.Rows()), s.Status())
	}
	if out := mustSubmit(t, s, "adieu"); out.Status != StatusContinue {
		t.Errorf("first guess after reset status %q, want playing", out.Status)
	}
}

func TestSetRowCount_KeepsParkedResolvedDaily(t *testing.T) {
	s := newTestSession(t, nil, newClock(), Options{})
	ctx := context.Background()
	mustSubmit(t, s, "crane")
	if err := s.ToggleMode(ctx); err != nil {
		t.Fatal(err)
	}
	s.SetRowCount(3)
	if err := s.ToggleMode(ctx); err != nil {
		t.Fatal(err)
	}
	if len(s.Rows()) != 1 || s.Status() != StatusWin {
		t.Errorf("resolved daily board lost: %d rows, status %q", len(s.Rows()), s.Status())
	}
}
