// Command datafeed loads the text and image datasets used for training and
// reports on them.
//
// Usage:
//
//	datafeed selftest [--config datafeed.yaml]
//	datafeed images   [--config datafeed.yaml]
//	datafeed report   [--config datafeed.yaml]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Noofbiz/dataFeed/config"
	"github.com/Noofbiz/dataFeed/internal/log"
)

type app struct {
	configPath string
	cfg        config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "datafeed",
		Short:         "Load and inspect training datasets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			log.Reconfigure(log.Config{Level: cfg.Log.Level, Output: cmd.ErrOrStderr()})
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file")

	root.AddCommand(
		newSelftestCmd(a),
		newImagesCmd(a),
		newReportCmd(a),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "datafeed:", err)
		stop()
		os.Exit(1)
	}
}
