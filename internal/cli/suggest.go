package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	suggestText string
	suggestMax  int
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest query completions",
	Long: `Suggest completions for a partial query from the index vocabulary,
common queries, and recent search history.

Example:
  scour suggest -q "goro"`,
	RunE: runSuggest,
}

func init() {
	rootCmd.AddCommand(suggestCmd)
	suggestCmd.Flags().StringVarP(&suggestText, "query", "q", "", "partial query (required)")
	suggestCmd.Flags().IntVar(&suggestMax, "max", 5, "maximum number of suggestions")
	suggestCmd.MarkFlagRequired("query")
}

func runSuggest(cmd *cobra.Command, args []string) error {
	engine, st, err := openEngine()
	if err != nil {
		return err
	}
	defer st.Close()

	suggestions, err := engine.Suggest(suggestText, suggestMax)
	if err != nil {
		return fmt.Errorf("suggest failed: %w", err)
	}

	if len(suggestions) == 0 {
		fmt.Println("No suggestions.")
		return nil
	}

	for _, s := range suggestions {
		fmt.Printf("%-30s (%s, %.2f)\n", s.Text, s.Source, s.Score)
	}
	return nil
}
