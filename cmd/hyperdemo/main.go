// Command hyperdemo serves the hypermedia greeting demo and renders its pages
// from the command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-hyperdemo/internal/config"
	"github.com/goliatone/go-hyperdemo/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(defaultCLI()).ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// cli carries state shared by every subcommand.
type cli struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger

	prompt     namePrompt
	isTerminal func() bool
}

func defaultCLI() *cli {
	return &cli{
		prompt:     surveyNamePrompt,
		isTerminal: stdinIsTerminal,
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "hyperdemo",
		Short: "Hypermedia greeting demo",
		Long: `hyperdemo serves a small site whose form submissions answer with a full
page for plain browsers and with only the changed fragment for htmx, Unpoly
and Turbo clients.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging, c.verbose)
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "hyperdemo.yaml", "path to the YAML config file")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newServeCmd(c), newRenderCmd(c))
	return root
}
