package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newScanCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "scan <file|->",
		Short: "Import scanned strings, one per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			out := json.NewEncoder(cmd.OutOrStdout())
			lines := bufio.NewScanner(bytes.NewReader(raw))
			lines.Buffer(make([]byte, 0, 64<<10), 1<<20)
			n := 0
			for lines.Scan() {
				n++
				line := strings.TrimSpace(lines.Text())
				if line == "" {
					continue
				}
				sum, err := c.svc.Scan(cmd.Context(), line)
				if err != nil {
					return fmt.Errorf("line %d: %w", n, err)
				}
				if err := out.Encode(sum); err != nil {
					return err
				}
			}
			return lines.Err()
		},
	}
}
