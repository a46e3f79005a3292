package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/jonathan/resume-builder/internal/types"
)

const liteSchema = `CREATE TABLE IF NOT EXISTS user_profiles (
	user_id    TEXT PRIMARY KEY,
	profile    TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS resume_artifacts (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	thread_id     TEXT NOT NULL,
	job_title     TEXT NOT NULL DEFAULT '',
	organization  TEXT NOT NULL DEFAULT '',
	document_text TEXT NOT NULL,
	binary_ref    TEXT NOT NULL DEFAULT '',
	ats           TEXT,
	created_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_resume_artifacts_user ON resume_artifacts (user_id, created_at);`

// LiteDB implements Repository on a local SQLite file for the chat command.
type LiteDB struct {
	db *sql.DB
}

// OpenLite opens (or creates) the SQLite database at path.
func OpenLite(ctx context.Context, path string) (*LiteDB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	sqlDB.SetMaxOpenConns(1) // SQLite: single writer

	if _, err := sqlDB.ExecContext(ctx, liteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to init sqlite schema: %w", err)
	}
	return &LiteDB{db: sqlDB}, nil
}

// Close closes the database.
func (l *LiteDB) Close() error {
	return l.db.Close()
}

// GetProfile implements ProfileRepository.
func (l *LiteDB) GetProfile(ctx context.Context, userID string) (*types.UserProfile, error) {
	var data string
	err := l.db.QueryRowContext(ctx, `SELECT profile FROM user_profiles WHERE user_id = ?`, userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	var profile types.UserProfile
	if err := json.Unmarshal([]byte(data), &profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &profile, nil
}

// SaveProfile implements ProfileRepository.
func (l *LiteDB) SaveProfile(ctx context.Context, userID string, profile *types.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO user_profiles (user_id, profile, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET profile = excluded.profile, updated_at = excluded.updated_at`,
		userID, string(data), time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// DeleteProfile implements ProfileRepository.
func (l *LiteDB) DeleteProfile(ctx context.Context, userID string) (bool, error) {
	res, err := l.db.ExecContext(ctx, `DELETE FROM user_profiles WHERE user_id = ?`, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete profile: %w", err)
	}
	return n > 0, nil
}

// SaveResume implements ResumeRepository.
func (l *LiteDB) SaveResume(ctx context.Context, artifact *types.ResumeArtifact) error {
	if artifact.ID == "" {
		artifact.ID = uuid.NewString()
	}
	atsJSON, err := json.Marshal(artifact.ATS)
	if err != nil {
		return fmt.Errorf("failed to marshal ATS result: %w", err)
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO resume_artifacts
		 (id, user_id, thread_id, job_title, organization, document_text, binary_ref, ats, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		artifact.ID, artifact.UserID, artifact.ThreadID, artifact.JobTitle, artifact.Organization,
		artifact.DocumentText, artifact.BinaryRef, string(atsJSON), artifact.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save resume: %w", err)
	}
	return nil
}

// GetResume implements ResumeRepository.
func (l *LiteDB) GetResume(ctx context.Context, id string) (*types.ResumeArtifact, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT id, user_id, thread_id, job_title, organization, document_text, binary_ref, ats, created_at
		 FROM resume_artifacts WHERE id = ?`, id)
	artifact, err := scanLiteResume(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}
	return artifact, nil
}

// ListResumes implements ResumeRepository.
func (l *LiteDB) ListResumes(ctx context.Context, userID string, limit, offset int) ([]types.ResumeArtifact, error) {
	limit, offset = normalizePage(limit, offset)

	rows, err := l.db.QueryContext(ctx,
		`SELECT id, user_id, thread_id, job_title, organization, document_text, binary_ref, ats, created_at
		 FROM resume_artifacts
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id
		 LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []types.ResumeArtifact{}
	for rows.Next() {
		artifact, err := scanLiteResume(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resume: %w", err)
		}
		out = append(out, *artifact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLiteResume(row rowScanner) (*types.ResumeArtifact, error) {
	var a types.ResumeArtifact
	var atsJSON sql.NullString
	var created int64
	if err := row.Scan(&a.ID, &a.UserID, &a.ThreadID, &a.JobTitle, &a.Organization,
		&a.DocumentText, &a.BinaryRef, &atsJSON, &created); err != nil {
		return nil, err
	}
	a.CreatedAt = time.Unix(0, created).UTC()
	if atsJSON.Valid && atsJSON.String != "" {
		if err := json.Unmarshal([]byte(atsJSON.String), &a.ATS); err != nil {
			return nil, err
		}
	}
	return &a, nil
}
