package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-builder/internal/logging"
	"github.com/jonathan/resume-builder/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes the chat, resume history and profile
endpoints, together with the janitor that prunes idle threads.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config and PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	log := logging.New(cfg.Logging, os.Stdout)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jwtCfg, err := cfg.JWT()
	if err != nil {
		return fmt.Errorf("failed to create JWT config: %w", err)
	}

	a, err := buildApp(ctx, cfg, persistConfigured, nil, &log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error().Err(err).Msg("shutdown cleanup failed")
		}
	}()

	srv, err := server.New(cfg.Server, server.Deps{
		Engine:    a.engine,
		Profiles:  a.repo,
		Resumes:   a.repo,
		Documents: a.documents,
		JWT:       server.NewJWTService(jwtCfg),
	}, &log)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})
	g.Go(func() error {
		return a.engine.RunJanitor(gctx, cfg.Retention.PruneInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
