package main

import (
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the extracted triplets as JSON to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		return eng.ExportTriplets(cmd.Context(), os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
