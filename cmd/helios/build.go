package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Extract triplets from all documents and rebuild the knowledge graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		res, err := eng.Rebuild(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("documents: %d\n", res.Documents)
		fmt.Printf("triplets:  %d\n", res.Triplets)
		fmt.Printf("edges:     %d\n", res.Edges)
		for _, path := range res.Skipped {
			fmt.Printf("skipped:   %s\n", path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}
