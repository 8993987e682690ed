package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/model"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/protocol"
)

var messageKinds = []string{"meta", "sched", "pitsched", "match", "pit"}

func newEncodeCmd(c *cli) *cobra.Command {
	var (
		pngPath  string
		terminal bool
	)
	cmd := &cobra.Command{
		Use:   "encode <meta|sched|pitsched|match|pit> <file|->",
		Short: "Encode a JSON document into a scannable string",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := args[0]
			if err := oneOf(kind, messageKinds...); err != nil {
				return err
			}
			raw, err := readInput(cmd, args[1])
			if err != nil {
				return err
			}
			encoded, err := c.encode(cmd, kind, raw)
			if err != nil {
				return err
			}
			return c.emit(cmd, encoded, pngPath, terminal)
		},
	}
	cmd.Flags().StringVar(&pngPath, "png", "", "also write the QR code to this PNG file")
	cmd.Flags().BoolVar(&terminal, "qr", false, "also draw the QR code on stderr")
	return cmd
}

func (c *cli) encode(cmd *cobra.Command, kind string, raw []byte) (string, error) {
	ctx := cmd.Context()
	switch kind {
	case "meta":
		var m protocol.Meta
		if err := decodeJSON(raw, &m); err != nil {
			return "", err
		}
		return c.svc.EncodeMeta(ctx, &m)
	case "sched":
		var rows []model.MatchAssignment
		if err := decodeJSON(raw, &rows); err != nil {
			return "", err
		}
		return c.svc.EncodeMatchSchedule(ctx, rows)
	case "pitsched":
		var rows []model.PitAssignment
		if err := decodeJSON(raw, &rows); err != nil {
			return "", err
		}
		return c.svc.EncodePitSchedule(ctx, rows)
	case "match":
		var r protocol.MatchResult
		if err := decodeJSON(raw, &r); err != nil {
			return "", err
		}
		return c.svc.EncodeMatchResult(ctx, &r)
	default:
		var r protocol.PitResult
		if err := decodeJSON(raw, &r); err != nil {
			return "", err
		}
		return c.svc.EncodePitResult(ctx, &r)
	}
}

func decodeJSON(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: input json: %v", errUsage, err)
	}
	return nil
}
