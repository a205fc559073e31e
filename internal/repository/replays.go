package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/arenaforge/skirmish-server-go/internal/replay"
)

// ErrNotFound is returned when no row exists for the requested encounter.
var ErrNotFound = errors.New("replay not found")

// ReplaySummary is the per-encounter row stored for listing and lookup.
// The raw event log lives in the file archive, not the database.
type ReplaySummary struct {
	EncounterID  string
	Rounds       int
	Turns        int
	Actions      int
	GlobalEvents int
	RecordedAt   time.Time
}

// replaysSchema creates the replays table. Applied at startup.
const replaysSchema = `
CREATE TABLE IF NOT EXISTS replays (
	encounter_id  TEXT PRIMARY KEY,
	rounds        INT NOT NULL,
	turns         INT NOT NULL,
	actions       INT NOT NULL,
	global_events INT NOT NULL,
	recorded_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// ReplayRepository stores replay summaries in postgres.
type ReplayRepository struct {
	db *DB
}

// NewReplayRepository creates a repository over the given database.
func NewReplayRepository(db *DB) *ReplayRepository {
	return &ReplayRepository{db: db}
}

// EnsureSchema creates the replays table if it does not exist.
func (r *ReplayRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Pool.Exec(ctx, replaysSchema); err != nil {
		return fmt.Errorf("failed to create replays table: %w", err)
	}
	return nil
}

// Save upserts the summary row for an indexed replay.
func (r *ReplayRepository) Save(ctx context.Context, rep *replay.Replay) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO replays (encounter_id, rounds, turns, actions, global_events)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (encounter_id) DO UPDATE SET
			rounds = EXCLUDED.rounds,
			turns = EXCLUDED.turns,
			actions = EXCLUDED.actions,
			global_events = EXCLUDED.global_events,
			recorded_at = now()`,
		rep.EncounterID,
		len(rep.Rounds),
		rep.Metadata.TotalTurns,
		rep.Metadata.TotalActions,
		len(rep.GlobalEvents),
	)
	if err != nil {
		return fmt.Errorf("failed to save replay summary: %w", err)
	}
	return nil
}

// Get returns the summary for one encounter.
func (r *ReplayRepository) Get(ctx context.Context, encounterID string) (*ReplaySummary, error) {
	row := r.db.Pool.QueryRow(ctx, `
		SELECT encounter_id, rounds, turns, actions, global_events, recorded_at
		FROM replays WHERE encounter_id = $1`, encounterID)

	var s ReplaySummary
	err := row.Scan(&s.EncounterID, &s.Rounds, &s.Turns, &s.Actions, &s.GlobalEvents, &s.RecordedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load replay summary: %w", err)
	}
	return &s, nil
}

// List returns the most recently recorded summaries, newest first.
func (r *ReplayRepository) List(ctx context.Context, limit int) ([]ReplaySummary, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT encounter_id, rounds, turns, actions, global_events, recorded_at
		FROM replays ORDER BY recorded_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list replay summaries: %w", err)
	}
	defer rows.Close()

	var summaries []ReplaySummary
	for rows.Next() {
		var s ReplaySummary
		if err := rows.Scan(&s.EncounterID, &s.Rounds, &s.Turns, &s.Actions, &s.GlobalEvents, &s.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan replay summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read replay summaries: %w", err)
	}
	return summaries, nil
}

// Delete removes the summary for one encounter.
func (r *ReplayRepository) Delete(ctx context.Context, encounterID string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM replays WHERE encounter_id = $1`, encounterID)
	if err != nil {
		return fmt.Errorf("failed to delete replay summary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
