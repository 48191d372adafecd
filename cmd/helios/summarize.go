package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/helioscover/helios"
	"github.com/helioscover/helios/explain"
)

var summarizeExplain bool

var summarizeCmd = &cobra.Command{
	Use:   "summarize [policy]",
	Short: "Print the category summary of a policy, or of all policies",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		if len(args) == 0 {
			summaries := eng.Summaries()
			policies := make([]string, 0, len(summaries))
			for p := range summaries {
				policies = append(policies, p)
			}
			sort.Strings(policies)
			for _, p := range policies {
				fmt.Println(explain.FormatProfile(p, summaries[p]))
			}
			return nil
		}

		policy := args[0]
		profile, ok := eng.Summarize(policy)
		if !ok {
			return fmt.Errorf("%w: %s", helios.ErrPolicyNotFound, policy)
		}
		fmt.Println(explain.FormatProfile(policy, profile))

		if summarizeExplain {
			text, err := eng.ExplainPolicy(cmd.Context(), policy)
			if err != nil {
				return err
			}
			fmt.Println()
			fmt.Println(text)
		}
		return nil
	},
}

func init() {
	summarizeCmd.Flags().BoolVar(&summarizeExplain, "explain", false, "also generate a plain-language explanation")
	rootCmd.AddCommand(summarizeCmd)
}
