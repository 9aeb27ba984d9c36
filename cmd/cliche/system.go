package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sizzlebop/CLIche/internal/sysinfo"
)

var systemCmd = &cobra.Command{
	Use:   "system",
	Short: "Show host system information",
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := sysinfo.Collect()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), info.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(systemCmd)
}
