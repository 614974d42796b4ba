package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"compliance/internal/platform/auth"
	"compliance/internal/platform/secrets"
	id "compliance/pkg/domain"
	"compliance/pkg/platform/audit"
)

func (c *cli) tokenCmd() *cobra.Command {
	var (
		operator string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development operator token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			operatorID := id.OperatorID(uuid.New())
			if operator != "" {
				parsed, err := id.ParseOperatorID(operator)
				if err != nil {
					return err
				}
				operatorID = parsed
			}
			if ttl <= 0 {
				ttl = c.cfg.Auth.TokenTTL
			}
			if c.cfg.UsesDevelopmentSecrets() {
				c.logger.Warn("issuing token with the built-in development signing key")
			}

			jwt := auth.NewJWTService(c.cfg.Auth.JWTSigningKey, c.cfg.Auth.Issuer, c.cfg.Auth.Audience)
			token, err := jwt.GenerateAccessToken(operatorID, id.APIVersionV1, ttl)
			if err != nil {
				return err
			}
			c.logger.Info("operator token issued",
				"event", string(audit.EventTokenIssued),
				"operator_id", operatorID.String(),
				"ttl", ttl.String(),
			)
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&operator, "operator", "", "operator UUID (random when empty)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to auth.token_ttl)")
	return cmd
}

func (c *cli) secretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "secret",
		Short: "Generate an admin token and the bcrypt hash to configure as server.admin_token_hash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := secrets.Generate()
			if err != nil {
				return err
			}
			hash, err := secrets.Hash(secret)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "admin_token=%s\n", secret)
			fmt.Fprintf(out, "admin_token_hash=%s\n", hash)
			return nil
		},
	}
}
