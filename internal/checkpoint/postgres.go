package checkpoint

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/resume-builder/internal/types"
)

// PostgresStore keeps checkpoints in the conversation_checkpoints table.
// The table is created by the db migrations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store over an open pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Load implements Store.
func (p *PostgresStore) Load(ctx context.Context, threadID string) (*types.ConversationState, error) {
	var data []byte
	err := p.pool.QueryRow(ctx,
		`SELECT state FROM conversation_checkpoints WHERE thread_id = $1`,
		threadID,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, persistenceErr("load", threadID, err)
	}

	state, err := decodeState(data)
	if err != nil {
		return nil, persistenceErr("load", threadID, err)
	}
	return state, nil
}

// Save implements Store. A version-0 state is inserted; any other state
// updates the row only if its version still matches.
func (p *PostgresStore) Save(ctx context.Context, state *types.ConversationState) error {
	data, err := encodeState(state)
	if err != nil {
		return persistenceErr("save", threadIDOf(state), err)
	}

	var affected int64
	if state.Version == 0 {
		tag, err := p.pool.Exec(ctx,
			`INSERT INTO conversation_checkpoints (thread_id, user_id, stage, state, version, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, 1, $5, $6)
			 ON CONFLICT (thread_id) DO NOTHING`,
			state.ThreadID, state.UserID, string(state.Stage), data, state.CreatedAt, state.UpdatedAt,
		)
		if err != nil {
			return persistenceErr("save", state.ThreadID, err)
		}
		affected = tag.RowsAffected()
	} else {
		tag, err := p.pool.Exec(ctx,
			`UPDATE conversation_checkpoints
			 SET stage = $2, state = $3, version = version + 1, updated_at = $4
			 WHERE thread_id = $1 AND version = $5`,
			state.ThreadID, string(state.Stage), data, state.UpdatedAt, state.Version,
		)
		if err != nil {
			return persistenceErr("save", state.ThreadID, err)
		}
		affected = tag.RowsAffected()
	}

	if affected != 1 {
		return persistenceErr("save", state.ThreadID, ErrVersionConflict)
	}
	state.Version++
	return nil
}

// Delete implements Store.
func (p *PostgresStore) Delete(ctx context.Context, threadID string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM conversation_checkpoints WHERE thread_id = $1`, threadID)
	if err != nil {
		return persistenceErr("delete", threadID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser implements Store.
func (p *PostgresStore) ListByUser(ctx context.Context, userID string) ([]types.ThreadSummary, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT thread_id, user_id, stage, created_at, updated_at
		 FROM conversation_checkpoints
		 WHERE user_id = $1
		 ORDER BY updated_at DESC, thread_id`,
		userID,
	)
	if err != nil {
		return nil, persistenceErr("list", "", err)
	}
	defer rows.Close()

	out := []types.ThreadSummary{}
	for rows.Next() {
		var s types.ThreadSummary
		var stage string
		if err := rows.Scan(&s.ThreadID, &s.UserID, &stage, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, persistenceErr("list", "", err)
		}
		s.Stage = types.Stage(stage)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("list", "", err)
	}
	return out, nil
}

// Prune implements Store.
func (p *PostgresStore) Prune(ctx context.Context, olderThan time.Time) (int, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM conversation_checkpoints WHERE updated_at < $1`, olderThan)
	if err != nil {
		return 0, persistenceErr("prune", "", err)
	}
	return int(tag.RowsAffected()), nil
}
