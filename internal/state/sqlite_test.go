package state

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "state.db")
	store, err := NewSQLite(dbPath)
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return store
}

func TestSettingsUpsertAndDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveSettings(ctx, map[string]string{"a": "1", "b": "2"}); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	if err := store.SaveSettings(ctx, map[string]string{"a": "3"}); err != nil {
		t.Fatalf("overwrite setting: %v", err)
	}
	for key, want := range map[string]string{"a": "3", "b": "2"} {
		if got, ok, err := store.LoadSetting(ctx, key); err != nil || !ok || got != want {
			t.Fatalf("setting %s = %q ok=%v err=%v, want %q", key, got, ok, err, want)
		}
	}

	if err := store.DeleteSettings(ctx, "a", "missing"); err != nil {
		t.Fatalf("delete settings: %v", err)
	}
	if _, ok, err := store.LoadSetting(ctx, "a"); err != nil || ok {
		t.Fatalf("expected key a to be deleted, ok=%v err=%v", ok, err)
	}
	if got, _, _ := store.LoadSetting(ctx, "b"); got != "2" {
		t.Fatalf("expected key b to survive, got %q", got)
	}
}

func TestTokenRoundTripAndClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if tok, err := LoadToken(ctx, store); err != nil || tok != "" {
		t.Fatalf("expected empty token on fresh store, got %q err=%v", tok, err)
	}
	if err := SaveToken(ctx, store, "tok-123"); err != nil {
		t.Fatalf("save token: %v", err)
	}
	if err := SaveHistory(ctx, store, []string{"help", "task"}); err != nil {
		t.Fatalf("save history: %v", err)
	}
	tok, err := LoadToken(ctx, store)
	if err != nil {
		t.Fatalf("load token: %v", err)
	}
	if tok != "tok-123" {
		t.Fatalf("expected tok-123, got %q", tok)
	}

	if err := ClearSession(ctx, store); err != nil {
		t.Fatalf("clear session: %v", err)
	}
	tok, _ = LoadToken(ctx, store)
	hist, _ := LoadHistory(ctx, store)
	if tok != "" || len(hist) != 0 {
		t.Fatalf("expected cleared session, token=%q history=%v", tok, hist)
	}
}

func TestSaveHistoryKeepsNewestTwenty(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entries := make([]string, 0, 21)
	for i := 1; i <= 21; i++ {
		entries = append(entries, fmt.Sprintf("cmd-%d", i))
	}
	if err := SaveHistory(ctx, store, entries); err != nil {
		t.Fatalf("save history: %v", err)
	}
	got, err := LoadHistory(ctx, store)
	if err != nil {
		t.Fatalf("load history: %v", err)
	}
	if len(got) != MaxPersistedHistory {
		t.Fatalf("expected %d entries, got %d", MaxPersistedHistory, len(got))
	}
	if got[0] != "cmd-2" || got[len(got)-1] != "cmd-21" {
		t.Fatalf("expected oldest entry dropped, got first=%q last=%q", got[0], got[len(got)-1])
	}
}

func TestLoadHistoryFiltersMalformedValues(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		raw  string
		want int
	}{
		{name: "not json", raw: "{oops", want: 0},
		{name: "object", raw: `{"a":1}`, want: 0},
		{name: "mixed", raw: `["help", "", 3, null, "task"]`, want: 2},
		{name: "too short", raw: "[", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := store.SaveSettings(ctx, map[string]string{HistoryKey: tt.raw}); err != nil {
				t.Fatalf("seed history: %v", err)
			}
			got, err := LoadHistory(ctx, store)
			if err != nil {
				t.Fatalf("load history: %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("expected %d entries, got %#v", tt.want, got)
			}
		})
	}
}

func TestLoadSettingMissingKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, ok, err := store.LoadSetting(ctx, TokenKey); err != nil || ok {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}
	if err := store.SaveSettings(ctx, map[string]string{TokenKey: "abc"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	v, ok, err := store.LoadSetting(ctx, TokenKey)
	if err != nil || !ok || v != "abc" {
		t.Fatalf("expected abc, got %q ok=%v err=%v", v, ok, err)
	}
}

func TestEnsureSchemaIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		store, err := NewSQLite(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			t.Fatalf("ensure schema %d: %v", i, err)
		}
		if i == 0 {
			if err := SaveToken(ctx, store, "kept"); err != nil {
				t.Fatalf("save token: %v", err)
			}
		} else if tok, _ := LoadToken(ctx, store); tok != "kept" {
			t.Fatalf("expected token to survive reopen, got %q", tok)
		}
		_ = store.Close()
	}
}

func TestEnsureSchemaRejectsNewerFile(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if _, err := store.db.ExecContext(ctx, `PRAGMA user_version = 99`); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	if err := store.EnsureSchema(ctx); err == nil {
		t.Fatalf("expected error for newer schema")
	}
}
