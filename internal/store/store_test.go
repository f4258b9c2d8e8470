package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/robalobadob/wordle/apps/unlimited-server/internal/game"
)

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testStores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": openTestSQLite(t),
	}
}

func TestStore_GetMissing(t *testing.T) {
	for name, st := range testStores(t) {
		_, err := st.Get(context.Background(), "nobody")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: err %v, want ErrNotFound", name, err)
		}
	}
}

func TestStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	for name, st := range testStores(t) {
		first := game.Record{Unlimited: true, WordIndex: 3, PlayerRecord: game.PlayerRecord{Wins: 2, Losses: 1}}
		if err := st.Save(ctx, "dev1", first); err != nil {
			t.Fatalf("%s: Save: %v", name, err)
		}
		second := game.Record{Unlimited: false, WordIndex: 4, PlayerRecord: game.PlayerRecord{Wins: 3, Losses: 1}}
		if err := st.Save(ctx, "dev1", second); err != nil {
			t.Fatalf("%s: Save: %v", name, err)
		}
		got, err := st.Get(ctx, "dev1")
		if err != nil {
			t.Fatalf("%s: Get: %v", name, err)
		}
		if got != second {
			t.Errorf("%s: got %+v, want %+v", name, got, second)
		}
		if _, err := st.Get(ctx, "dev2"); !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: records leaked across devices", name)
		}
	}
}

func TestBind_TranslatesNotFound(t *testing.T) {
	ctx := context.Background()
	p := Bind(NewMemoryStore(), "dev1")
	if _, err := p.Load(ctx); !errors.Is(err, game.ErrNoRecord) {
		t.Fatalf("err %v, want game.ErrNoRecord", err)
	}
	want := game.Record{Unlimited: true, WordIndex: 1}
	if err := p.Save(ctx, want); err != nil {
		t.Fatal(err)
	}
	got, err := p.Load(ctx)
	if err != nil || got != want {
		t.Errorf("Load = %+v, %v; want %+v", got, err, want)
	}
}

func TestSQLite_ReopenKeepsRecordsAndMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")
	ctx := context.Background()

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	rec := game.Record{Unlimited: true, WordIndex: 9}
	if err := s.Save(ctx, "dev", rec); err != nil {
		t.Fatal(err)
	}
	_ = s.Close()

	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.Get(ctx, "dev")
	if err != nil || got != rec {
		t.Errorf("Get = %+v, %v; want %+v", got, err, rec)
	}
}

func TestSQLite_StoresSessionFormat(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()
	if err := s.Save(ctx, "dev", game.Record{Unlimited: true, WordIndex: 3, PlayerRecord: game.PlayerRecord{Wins: 2, Losses: 1}}); err != nil {
		t.Fatal(err)
	}
	var data string
	if err := s.db.QueryRow(`SELECT data FROM records WHERE device_id='dev'`).Scan(&data); err != nil {
		t.Fatal(err)
	}
	want := `{"unlimited":true,"wordIndex":3,"playerRecord":{"wins":2,"losses":1}}`
	if data != want {
		t.Errorf("stored %s, want %s", data, want)
	}
}
