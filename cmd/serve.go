// Package cmd — serve command.
// Starts the HTTP shell in front of the conversion service.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/layoutpipe/core/engine"
	"github.com/gaurav-prasanna/layoutpipe/core/service"
	"github.com/gaurav-prasanna/layoutpipe/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the conversion API over HTTP",
	Long: `Serve exposes POST /api/v1/ocr/convert and GET /api/v1/health.
Uploads are sent to the Recognition Engine configured by engine.url
(or ENGINE_URL).`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Engine.URL == "" {
		return fmt.Errorf("engine.url (or ENGINE_URL) is required to serve")
	}
	logger := newLogger()

	eng := engine.NewHTTPEngine(cfg.Engine.URL, cfg.Engine.Timeout, logger)
	svc := service.New(eng, engine.NewJoiner(cfg.PageSeparator), cfg.OutputDir, logger)
	srv := server.New(cfg, svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stdout, "Listening on %s\n", cfg.Addr())
	return srv.ListenAndServe(ctx)
}
