package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"clothsy/internal/app"
	"clothsy/internal/config"
	applog "clothsy/internal/log"
	"clothsy/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// teeLog sends the standard logger to stdout and the log file.
func teeLog(path string) {
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("[warn] could not open log file %s: %v", path, err)
		return
	}
	log.SetOutput(io.MultiWriter(os.Stdout, f))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	teeLog(cfg.LogFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	srv := a.Fiber(server.DefaultOptions())

	errc := make(chan error, 1)
	go func() { errc <- srv.Listen(":" + cfg.Port) }()
	applog.Info(nil, "server.start", map[string]any{"port": cfg.Port, "backend": cfg.Backend})

	select {
	case err = <-errc:
	case <-ctx.Done():
		applog.Info(nil, "server.stop", nil)
		err = srv.ShutdownWithTimeout(10 * time.Second)
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if cerr := a.Close(closeCtx); cerr != nil {
		applog.Error(nil, "server.close.fail", cerr, nil)
	}
	return err
}
