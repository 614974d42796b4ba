// Command compliance runs the identity number verification service and its
// operator tooling.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"compliance/internal/platform/config"
	"compliance/internal/platform/logger"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

// errInvalidNumbers makes `check` exit non-zero without printing usage.
var errInvalidNumbers = errors.New("one or more identity numbers are invalid")

// cli carries state shared by every subcommand once the root has loaded config.
type cli struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "compliance",
		Short:         "South African identity number verification service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			c.cfg = cfg
			c.logger = logger.NewWithWriter(cfg.Log, cmd.ErrOrStderr())
			return nil
		},
	}
	root.AddCommand(
		c.serveCmd(),
		c.migrateCmd(),
		c.checkCmd(),
		c.tokenCmd(),
		c.secretCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
