package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"compliance/internal/identity/saidnumber"
)

func (c *cli) checkCmd() *cobra.Command {
	var (
		strict bool
		pivot  int
	)
	cmd := &cobra.Command{
		Use:   "check <id-number>...",
		Short: "Validate identity numbers offline and print one JSON result per line",
		Long: `Validate each argument and print its result as JSON, one per line.
Exits with status 1 when any number is invalid.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			identity := c.cfg.Identity
			if cmd.Flags().Changed("strict") {
				identity.StrictCalendar = strict
			}
			if cmd.Flags().Changed("pivot") {
				if pivot < 0 || pivot > 100 {
					return fmt.Errorf("--pivot must be within [0,100], got %d", pivot)
				}
				identity.CenturyPivot = pivot
			}
			validator := saidnumber.New(identity.ValidatorOptions()...)

			enc := json.NewEncoder(cmd.OutOrStdout())
			allValid := true
			for _, raw := range args {
				result := validator.Validate(raw)
				if err := enc.Encode(result); err != nil {
					return err
				}
				allValid = allValid && result.Valid
			}
			if !allValid {
				return errInvalidNumbers
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "reject dates that do not exist in the calendar")
	cmd.Flags().IntVar(&pivot, "pivot", int(saidnumber.DefaultPivot), "two-digit years below the pivot are 20xx")
	return cmd
}
