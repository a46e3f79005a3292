package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-builder/internal/server"
)

var tokenUserID string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for local development",
	Long: `Print a signed JWT for the given user. A new user ID is generated when
--user-id is omitted.`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user-id", "", "User UUID to put in the token")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	jwtCfg, err := cfg.JWT()
	if err != nil {
		return err
	}

	userID := uuid.New()
	if tokenUserID != "" {
		if userID, err = uuid.Parse(tokenUserID); err != nil {
			return fmt.Errorf("invalid --user-id: %w", err)
		}
	}

	token, err := server.NewJWTService(jwtCfg).GenerateToken(userID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "user_id: %s\n", userID)
	fmt.Fprintf(out, "token:   %s\n", token)
	return nil
}
