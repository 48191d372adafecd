package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var riskFile string

var riskCmd = &cobra.Command{
	Use:   "risk [business description]",
	Short: "Classify business risks and required insurance coverages",
	Long: `Classifies a free-text business description into risk categories and
derives the mandatory and optional insurance coverages it implies.

The description is read from the arguments, or from a file with --file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if riskFile != "" {
			data, err := os.ReadFile(riskFile)
			if err != nil {
				return err
			}
			text = string(data)
		}
		if strings.TrimSpace(text) == "" {
			return errors.New("no business description given")
		}

		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		profile, err := eng.Precheck(cmd.Context(), text)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(profile, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	riskCmd.Flags().StringVar(&riskFile, "file", "", "read the business description from a file")
	rootCmd.AddCommand(riskCmd)
}
