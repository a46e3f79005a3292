package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/resume-builder/internal/types"
)

// GetProfile implements ProfileRepository.
func (db *DB) GetProfile(ctx context.Context, userID string) (*types.UserProfile, error) {
	var data []byte
	err := db.pool.QueryRow(ctx,
		`SELECT profile FROM user_profiles WHERE user_id = $1`,
		userID,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	var profile types.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &profile, nil
}

// SaveProfile implements ProfileRepository.
func (db *DB) SaveProfile(ctx context.Context, userID string, profile *types.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO user_profiles (user_id, profile)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET profile = $2, updated_at = NOW()`,
		userID, data,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// DeleteProfile implements ProfileRepository.
func (db *DB) DeleteProfile(ctx context.Context, userID string) (bool, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM user_profiles WHERE user_id = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete profile: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
