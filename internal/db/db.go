// Package db provides storage for user profiles and generated resumes.
// PostgreSQL backs the server; SQLite backs the local chat command.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/resume-builder/internal/types"
)

// ProfileRepository stores one profile per user.
type ProfileRepository interface {
	// GetProfile returns the user's profile, or nil when none exists.
	GetProfile(ctx context.Context, userID string) (*types.UserProfile, error)
	// SaveProfile replaces the user's profile.
	SaveProfile(ctx context.Context, userID string, profile *types.UserProfile) error
	// DeleteProfile removes the profile and reports whether one existed.
	DeleteProfile(ctx context.Context, userID string) (bool, error)
}

// ResumeRepository stores the append-only history of generated resumes.
type ResumeRepository interface {
	SaveResume(ctx context.Context, artifact *types.ResumeArtifact) error
	// GetResume returns the artifact, or nil when none exists.
	GetResume(ctx context.Context, id string) (*types.ResumeArtifact, error)
	// ListResumes returns the user's resumes newest first.
	ListResumes(ctx context.Context, userID string, limit, offset int) ([]types.ResumeArtifact, error)
}

// Repository is the full storage surface used by the engine and server.
type Repository interface {
	ProfileRepository
	ResumeRepository
}

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Pool exposes the pool for components that share the connection, such as
// the checkpoint store.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Ping checks the connection.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// normalizePage clamps list paging arguments.
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// Paging defaults for ListResumes.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)
