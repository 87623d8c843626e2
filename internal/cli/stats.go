package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"scour/config"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	engine, st, err := openEngine()
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := engine.Stats()
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}

	if statsJSON {
		output, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Index statistics:\n")
	fmt.Printf("  Documents:      %d\n", stats.TotalDocuments)
	fmt.Printf("  Vocabulary:     %d terms\n", stats.VocabularySize)
	fmt.Printf("  Postings:       %d\n", stats.TotalPostings)
	fmt.Printf("  Avg doc length: %.1f words\n", stats.AvgDocLength)
	fmt.Printf("  Dimensions:     %d\n", engine.Dimensions())
	fmt.Printf("\nIndex stored at: %s\n", config.IndexDBPath(GetRootDir()))
	return nil
}
