package main

import (
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/meikuraledutech/flowboard/config"
)

var version = "0.3.0"

var (
	configPath string

	cfg    *config.Config
	logger *slog.Logger
)

var (
	good   = color.New(color.FgGreen)
	bad    = color.New(color.FgRed)
	subtle = color.New(color.FgHiBlack)
	brand  = color.New(color.FgHiCyan, color.Bold)
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "flowboard",
		Short:         "State backend for the flowboard diagram editor",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg = c
			logger = cfg.Log.NewLogger(os.Stderr)
			slog.SetDefault(logger)
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default "+config.DefaultPath()+")")

	root.AddCommand(
		serveCmd(),
		schemaCmd(),
		diagramsCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	err := newRootCmd().Execute()
	if err != nil {
		bad.Fprintf(os.Stderr, "flowboard: %v\n", err)
	}
	return err
}
