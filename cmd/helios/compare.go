package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	compareText    string
	compareFile    string
	compareExplain bool
)

var compareCmd = &cobra.Command{
	Use:   "compare <policy>",
	Short: "Compare a policy's coverages against a business description",
	Long: `Classifies the business description into required coverages, then checks
which of them the named policy actually covers.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := compareText
		if compareFile != "" {
			data, err := os.ReadFile(compareFile)
			if err != nil {
				return err
			}
			text = string(data)
		}
		if strings.TrimSpace(text) == "" {
			return errors.New("no business description given, use --text or --file")
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

		policy := args[0]
		cmp, err := eng.Compare(policy, profile)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(cmp, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))

		if compareExplain {
			explanation, err := eng.ExplainComparison(cmd.Context(), policy, profile, cmp)
			if err != nil {
				return err
			}
			fmt.Println()
			fmt.Println(explanation)
		}
		return nil
	},
}

func init() {
	compareCmd.Flags().StringVar(&compareText, "text", "", "business description")
	compareCmd.Flags().StringVar(&compareFile, "file", "", "read the business description from a file")
	compareCmd.Flags().BoolVar(&compareExplain, "explain", false, "also generate a plain-language explanation")
	rootCmd.AddCommand(compareCmd)
}
