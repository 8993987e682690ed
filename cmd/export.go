package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/model"
)

func newExportCmd(c *cli) *cobra.Command {
	var (
		org, event, key, team string
		pngPath               string
		terminal              bool
	)
	cmd := &cobra.Command{
		Use:   "export <meta|sched|pitsched|match|pit>",
		Short: "Encode what the local store holds for re-sharing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := args[0]
			if err := oneOf(kind, messageKinds...); err != nil {
				return err
			}
			ctx := cmd.Context()
			if org == "" && kind != "match" {
				return fmt.Errorf("%w: --org is required", errUsage)
			}

			var (
				encoded string
				err     error
			)
			switch kind {
			case "meta":
				encoded, err = c.svc.ExportMeta(ctx, org)
			case "sched", "pitsched":
				if event == "" {
					return fmt.Errorf("%w: --event is required", errUsage)
				}
				if kind == "sched" {
					encoded, err = c.svc.ExportMatchSchedule(ctx, org, event)
				} else {
					encoded, err = c.svc.ExportPitSchedule(ctx, org, event)
				}
			case "match":
				if key == "" {
					return fmt.Errorf("%w: --key is required", errUsage)
				}
				encoded, err = c.svc.ExportMatchResult(ctx, key)
			default:
				if event == "" || team == "" {
					return fmt.Errorf("%w: --event and --team are required", errUsage)
				}
				encoded, err = c.svc.ExportPitResult(ctx, model.PitKey{OrgKey: org, EventKey: event, TeamKey: team})
			}
			if err != nil {
				return err
			}
			return c.emit(cmd, encoded, pngPath, terminal)
		},
	}
	cmd.Flags().StringVar(&org, "org", "", "org key")
	cmd.Flags().StringVar(&event, "event", "", "event key")
	cmd.Flags().StringVar(&key, "key", "", "match-team key for a match result")
	cmd.Flags().StringVar(&team, "team", "", "team key for a pit result")
	cmd.Flags().StringVar(&pngPath, "png", "", "also write the QR code to this PNG file")
	cmd.Flags().BoolVar(&terminal, "qr", false, "also draw the QR code on stderr")
	return cmd
}
