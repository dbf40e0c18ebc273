package main

import (
	"encoding/json"
	"fmt"

	"github.com/paveg/kairos/internal/version"
	"github.com/spf13/cobra"
)

func makeVersionCommand() *cobra.Command {
	var asJSON bool
	runCmdFunc := func(cmd *cobra.Command, _ []string) error {
		info := version.Info()
		if !asJSON {
			fmt.Fprint(cmd.OutOrStdout(), info.String())
			return nil
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE:  runCmdFunc,
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print build information as JSON")
	return cmd
}
