package cmd

import (
	"fmt"

	"github.com/marcus/svp/internal/config"
	"github.com/marcus/svp/internal/db"
	"github.com/marcus/svp/internal/models"
	"github.com/marcus/svp/internal/output"
	"github.com/spf13/cobra"
)

var findCmd = &cobra.Command{
	Use:   "find <query>",
	Short: "Search plans by code, name, entity, description or team",
	Long: `Search plans by code, name, plan-for entity, description and team,
best matches first.`,
	GroupID: "plans",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		username, err := config.GetUsername(getBaseDir())
		if err != nil {
			return err
		}
		results, err := database.SearchPlansRanked(args[0], username)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		if statuses, _ := cmd.Flags().GetStringArray("status"); len(statuses) > 0 {
			results, err = filterResultsByStatus(results, statuses)
			if err != nil {
				return err
			}
		}
		if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 && len(results) > limit {
			results = results[:limit]
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return output.JSON(results)
		}
		showScore, _ := cmd.Flags().GetBool("show-score")
		for _, r := range results {
			line := output.FormatPlanShort(&r.Plan)
			if showScore {
				line += fmt.Sprintf("  (score %d, %s)", r.Score, r.MatchField)
			}
			fmt.Println(line)
		}
		if len(results) == 0 {
			fmt.Printf("No plans matching '%s'\n", args[0])
		}
		return nil
	},
}

// filterResultsByStatus keeps results whose plan has one of statuses
func filterResultsByStatus(results []db.SearchResult, statuses []string) ([]db.SearchResult, error) {
	want := map[models.PlanStatus]bool{}
	for _, s := range statuses {
		st, err := parseStatus(s)
		if err != nil {
			return nil, err
		}
		want[st] = true
	}
	out := results[:0:0]
	for _, r := range results {
		if want[r.Plan.Status] {
			out = append(out, r)
		}
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(findCmd)

	findCmd.Flags().StringArrayP("status", "s", nil, "Filter by status (repeatable)")
	findCmd.Flags().IntP("limit", "n", 0, "Show at most n results")
	findCmd.Flags().Bool("show-score", false, "Show the relevance score")
	findCmd.Flags().Bool("json", false, "Machine-readable JSON")
}
