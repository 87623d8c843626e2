package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"scour/config"
	"scour/internal/adapter/lexicon"
	"scour/internal/adapter/query"
	"scour/internal/adapter/store"
	"scour/internal/usecase"
)

var (
	searchText    string
	searchTopK    int
	searchJSON    bool
	searchNoSpell bool
	searchNoExp   bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the indexed corpus",
	Long: `Run a query through the full pipeline: validation, spell correction,
synonym expansion, TF-IDF ranking, and snippet extraction.

Examples:
  scour search -q "goroutine scheduling"
  scour search -q "machine lerning" --top-k 3 --json`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchText, "query", "q", "", "search query (required)")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	searchCmd.Flags().BoolVar(&searchNoSpell, "no-spell", false, "disable spell correction")
	searchCmd.Flags().BoolVar(&searchNoExp, "no-expand", false, "disable query expansion")
	searchCmd.MarkFlagRequired("query")
}

// openEngine loads the persisted index into a ready search engine. The
// caller closes the returned store.
func openEngine() (*usecase.SearchUseCase, *store.BoltStore, error) {
	cfg := GetConfig()

	dbPath := config.IndexDBPath(GetRootDir())
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("no index found. Run 'scour index' first")
	}

	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open index: %w", err)
	}

	status, err := st.CheckSchema(cfg)
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("failed to check schema: %w", err)
	}
	if status.NeedsRebuild {
		st.Close()
		return nil, nil, fmt.Errorf("%s. Run 'scour index' to rebuild", status.Reason)
	}

	engine := usecase.NewSearchUseCase(cfg, st, lexicon.New(nil), GetLogger())
	if err := engine.LoadFromStore(); err != nil {
		st.Close()
		if errors.Is(err, store.ErrNoSnapshot) {
			return nil, nil, fmt.Errorf("no index found. Run 'scour index' first")
		}
		return nil, nil, fmt.Errorf("failed to load index: %w", err)
	}
	return engine, st, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	engine, st, err := openEngine()
	if err != nil {
		return err
	}
	defer st.Close()

	opts := usecase.SearchOptions{
		TopK:       searchTopK,
		SpellCheck: !searchNoSpell,
		Expand:     !searchNoExp,
	}

	res, err := engine.Search(searchText, opts)
	if err != nil {
		var verr *query.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("invalid query: %s", verr.Message)
		}
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		output, _ := json.MarshalIndent(res, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(res.Query.Corrections) > 0 {
		var fixed []string
		for _, c := range res.Query.Corrections {
			fixed = append(fixed, fmt.Sprintf("%s -> %s", c.Original, c.Corrected))
		}
		fmt.Printf("Corrected: %s\n", strings.Join(fixed, ", "))
	}
	if len(res.Query.Expansions) > 0 {
		var added []string
		for _, e := range res.Query.Expansions {
			added = append(added, e.Synonyms...)
			added = append(added, e.Related...)
		}
		fmt.Printf("Expanded with: %s\n", strings.Join(added, ", "))
	}

	if len(res.Results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results for: %s (%.1fms)\n\n", res.Total, res.Query.Raw, res.TookMS)
	for _, r := range res.Results {
		fmt.Printf("--- [%d] %s (score: %.3f) ---\n", r.Rank, r.Title, r.Score)
		fmt.Printf("    %s\n", r.URL)
		if r.Snippet != "" {
			fmt.Printf("    %s\n", r.Snippet)
		}
		fmt.Println()
	}

	return nil
}
