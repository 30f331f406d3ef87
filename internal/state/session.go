package state

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Fixed keys for the persisted session. Both are cleared together on logout.
const (
	TokenKey   = "token"
	HistoryKey = "cmd-history"
)

// MaxPersistedHistory bounds the stored command history.
const MaxPersistedHistory = 20

func LoadToken(ctx context.Context, s Store) (string, error) {
	token, _, err := s.LoadSetting(ctx, TokenKey)
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return strings.TrimSpace(token), nil
}

func SaveToken(ctx context.Context, s Store, token string) error {
	if err := s.SaveSettings(ctx, map[string]string{TokenKey: token}); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// LoadHistory returns the stored history. A value that is not a JSON array is
// treated as absent; non-string and empty entries are dropped.
func LoadHistory(ctx context.Context, s Store) ([]string, error) {
	raw, ok, err := s.LoadSetting(ctx, HistoryKey)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if !ok || len(raw) < 2 {
		return nil, nil
	}
	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if cmd, ok := item.(string); ok && cmd != "" {
			out = append(out, cmd)
		}
	}
	return out, nil
}

// SaveHistory keeps only the newest MaxPersistedHistory entries.
func SaveHistory(ctx context.Context, s Store, entries []string) error {
	if len(entries) > MaxPersistedHistory {
		entries = entries[len(entries)-MaxPersistedHistory:]
	}
	if entries == nil {
		entries = []string{}
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := s.SaveSettings(ctx, map[string]string{HistoryKey: string(b)}); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// ClearSession drops the token and history in one call.
func ClearSession(ctx context.Context, s Store) error {
	if err := s.DeleteSettings(ctx, TokenKey, HistoryKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
