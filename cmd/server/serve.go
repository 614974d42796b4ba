package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"compliance/internal/platform/logger"
)

func (c *cli) serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, outbox relay and audit consumer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log := logger.New(c.cfg.Log)
			if c.cfg.UsesDevelopmentSecrets() {
				log.Warn("running with built-in development secrets; set COMPLIANCE_AUTH_JWT_SIGNING_KEY and COMPLIANCE_IDENTITY_SUBJECT_HASH_KEY")
			}

			a, err := buildApp(ctx, c.cfg, log, migrate)
			if err != nil {
				return err
			}
			defer a.close()
			return a.run(ctx)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}
