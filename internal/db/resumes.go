package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/resume-builder/internal/types"
)

// SaveResume implements ResumeRepository. An artifact without an ID gets a
// new one.
func (db *DB) SaveResume(ctx context.Context, artifact *types.ResumeArtifact) error {
	if artifact.ID == "" {
		artifact.ID = uuid.NewString()
	}
	atsJSON, err := json.Marshal(artifact.ATS)
	if err != nil {
		return fmt.Errorf("failed to marshal ATS result: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO resume_artifacts
		 (id, user_id, thread_id, job_title, organization, document_text, binary_ref, ats, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		artifact.ID, artifact.UserID, artifact.ThreadID, artifact.JobTitle, artifact.Organization,
		artifact.DocumentText, artifact.BinaryRef, atsJSON, artifact.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save resume: %w", err)
	}
	return nil
}

// GetResume implements ResumeRepository.
func (db *DB) GetResume(ctx context.Context, id string) (*types.ResumeArtifact, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	row := db.pool.QueryRow(ctx,
		`SELECT id, user_id, thread_id, job_title, organization, document_text, binary_ref, ats, created_at
		 FROM resume_artifacts WHERE id = $1`,
		id,
	)
	artifact, err := scanResume(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}
	return artifact, nil
}

// ListResumes implements ResumeRepository.
func (db *DB) ListResumes(ctx context.Context, userID string, limit, offset int) ([]types.ResumeArtifact, error) {
	limit, offset = normalizePage(limit, offset)

	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, thread_id, job_title, organization, document_text, binary_ref, ats, created_at
		 FROM resume_artifacts
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	defer rows.Close()

	out := []types.ResumeArtifact{}
	for rows.Next() {
		artifact, err := scanResume(rows)
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

func scanResume(row pgx.Row) (*types.ResumeArtifact, error) {
	var a types.ResumeArtifact
	var id uuid.UUID
	var atsJSON []byte
	if err := row.Scan(&id, &a.UserID, &a.ThreadID, &a.JobTitle, &a.Organization,
		&a.DocumentText, &a.BinaryRef, &atsJSON, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.ID = id.String()
	if len(atsJSON) > 0 {
		if err := json.Unmarshal(atsJSON, &a.ATS); err != nil {
			return nil, err
		}
	}
	return &a, nil
}
