package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/jonathan/resume-builder/internal/types"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS conversation_checkpoints (
	thread_id  TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	stage      TEXT NOT NULL,
	state      TEXT NOT NULL,
	version    INTEGER NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_checkpoints_user ON conversation_checkpoints (user_id, updated_at);`

// SQLiteStore keeps checkpoints in a local SQLite file. Timestamps are
// stored as Unix nanoseconds so range comparisons stay numeric.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the database at path and ensures the
// schema exists.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("checkpoint: init sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, threadID string) (*types.ConversationState, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM conversation_checkpoints WHERE thread_id = ?`, threadID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, persistenceErr("load", threadID, err)
	}

	state, err := decodeState([]byte(data))
	if err != nil {
		return nil, persistenceErr("load", threadID, err)
	}
	return state, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, state *types.ConversationState) error {
	data, err := encodeState(state)
	if err != nil {
		return persistenceErr("save", threadIDOf(state), err)
	}

	var res sql.Result
	if state.Version == 0 {
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO conversation_checkpoints (thread_id, user_id, stage, state, version, created_at, updated_at)
			 VALUES (?, ?, ?, ?, 1, ?, ?)
			 ON CONFLICT (thread_id) DO NOTHING`,
			state.ThreadID, state.UserID, string(state.Stage), string(data),
			state.CreatedAt.UnixNano(), state.UpdatedAt.UnixNano(),
		)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE conversation_checkpoints
			 SET stage = ?, state = ?, version = version + 1, updated_at = ?
			 WHERE thread_id = ? AND version = ?`,
			string(state.Stage), string(data), state.UpdatedAt.UnixNano(),
			state.ThreadID, state.Version,
		)
	}
	if err != nil {
		return persistenceErr("save", state.ThreadID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return persistenceErr("save", state.ThreadID, err)
	}
	if affected != 1 {
		return persistenceErr("save", state.ThreadID, ErrVersionConflict)
	}
	state.Version++
	return nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, threadID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversation_checkpoints WHERE thread_id = ?`, threadID)
	if err != nil {
		return persistenceErr("delete", threadID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return persistenceErr("delete", threadID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser implements Store.
func (s *SQLiteStore) ListByUser(ctx context.Context, userID string) ([]types.ThreadSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT thread_id, user_id, stage, created_at, updated_at
		 FROM conversation_checkpoints
		 WHERE user_id = ?
		 ORDER BY updated_at DESC, thread_id`,
		userID,
	)
	if err != nil {
		return nil, persistenceErr("list", "", err)
	}
	defer func() { _ = rows.Close() }()

	out := []types.ThreadSummary{}
	for rows.Next() {
		var sum types.ThreadSummary
		var stage string
		var created, updated int64
		if err := rows.Scan(&sum.ThreadID, &sum.UserID, &stage, &created, &updated); err != nil {
			return nil, persistenceErr("list", "", err)
		}
		sum.Stage = types.Stage(stage)
		sum.CreatedAt = time.Unix(0, created).UTC()
		sum.UpdatedAt = time.Unix(0, updated).UTC()
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("list", "", err)
	}
	return out, nil
}

// Prune implements Store.
func (s *SQLiteStore) Prune(ctx context.Context, olderThan time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM conversation_checkpoints WHERE updated_at < ?`, olderThan.UnixNano(),
	)
	if err != nil {
		return 0, persistenceErr("prune", "", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, persistenceErr("prune", "", err)
	}
	return int(affected), nil
}
