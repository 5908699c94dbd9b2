package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"eventpulse/internal/dataset"
	"eventpulse/internal/loader"
)

// watchCmd keeps the engine live against the snapshot file.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Recompute the report whenever the snapshot file changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEngine()
		if err != nil {
			return err
		}
		printReport(e)

		w, err := loader.NewWatcher(cfg.Snapshot.Path, func(snap *dataset.Snapshot) {
			e.Load(snap)
			fmt.Println("\n--- snapshot changed ---")
			printReport(e)
		}, loader.WithLogger(logger), loader.WithDebounce(cfg.DebounceDuration()))
		if err != nil {
			return err
		}
		if err := w.Start(); err != nil {
			return err
		}
		defer w.Stop()

		logger.Info("watching for snapshot changes", zap.String("path", cfg.Snapshot.Path))

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		return nil
	},
}
