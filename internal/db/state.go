package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/farmstats/farmbot/internal/ledger"
)

// State is the full persisted process state: the ledger snapshot plus the
// externally-addressable report artifact handles (Discord message IDs).
type State struct {
	Ledger               ledger.Snapshot   `json:"ledger"`
	ReportMessages       map[string]string `json:"report_messages,omitempty"`
	LeaderboardMessageID string            `json:"leaderboard_message_id,omitempty"`
	LeaderboardCreatedAt *time.Time        `json:"leaderboard_created_at,omitempty"`
	LastLeaderID         string            `json:"last_leader_id,omitempty"`
	LastLeaderNoticeID   string            `json:"last_leader_notice_id,omitempty"`
}

// ErrCorruptState marks persisted state that could not be decoded. Callers
// recover by starting from an empty ledger.
var ErrCorruptState = errors.New("persisted state is corrupt")

// LoadState returns the persisted state, or nil when none was saved yet.
func (db *DB) LoadState(ctx context.Context) (*State, error) {
	var data []byte
	err := db.pool.QueryRow(ctx, "SELECT data FROM bot_state WHERE id = 1").Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	return &st, nil
}

// SaveState replaces the persisted state.
func (db *DB) SaveState(ctx context.Context, st *State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	_, err = db.pool.Exec(ctx,
		`INSERT INTO bot_state (id, data, updated_at) VALUES (1, $1, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = CURRENT_TIMESTAMP`,
		data,
	)
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}
