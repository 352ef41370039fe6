package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/marcus/svp/internal/config"
	"github.com/marcus/svp/internal/grid"
	"github.com/marcus/svp/internal/models"
	"github.com/marcus/svp/internal/output"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var searchCmd = &cobra.Command{
	Use:     "search",
	Aliases: []string{"searches"},
	Short:   "Manage saved plan searches",
	Long: `Manage saved plan searches. A saved search stores the plan search form
values (name, period, statuses, programs, divisions) under a name. The
active search is applied when the plan list opens.`,
	GroupID: "searches",
}

var searchListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List saved searches",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		searches, err := database.ListSavedSearches()
		if err != nil {
			return err
		}
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return output.JSON(searches)
		}
		if len(searches) == 0 {
			fmt.Println("No saved searches")
			return nil
		}
		cfg, err := config.Load(getBaseDir())
		if err != nil {
			return err
		}
		for _, s := range searches {
			marker := "  "
			if s.ID == cfg.ActiveSearchID {
				marker = "* "
			}
			fmt.Printf("%s%-6s %s  %s\n", marker, s.ID, s.Name, describeSearch(s.Values))
		}
		return nil
	},
}

var searchSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save a search under a name",
	Long: `Save a search under a name, replacing a saved search with the same
name. Values not given on the command line come from the default search.

Example:
  svp search save "Open Ryan White" --search-status "In Progress" --search-program "Ryan White"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		cfg, err := loadGridConfig(database)
		if err != nil {
			return err
		}
		values := searchFromFlags(cmd.Flags(), cfg.DefaultSearchValues)
		values.SearchName = strings.TrimSpace(args[0])

		saved, err := database.SaveSearch(values.SearchName, values)
		if err != nil {
			return err
		}
		if use, _ := cmd.Flags().GetBool("use"); use {
			if err := config.SetActiveSearch(getBaseDir(), saved.ID); err != nil {
				return err
			}
		}
		output.Success("Saved search %s (%s)", saved.Name, saved.ID)
		return nil
	},
}

var searchShowCmd = &cobra.Command{
	Use:   "show <id-or-name>",
	Short: "Show a saved search",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		s, err := database.GetSavedSearch(args[0])
		if err != nil {
			return fmt.Errorf("saved search %q: %w", args[0], err)
		}
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return output.JSON(s)
		}
		fmt.Printf("%s: %s\n", s.ID, s.Name)
		fmt.Printf("Plan Name: %s\n", s.Values.PlanNameLike)
		fmt.Printf("Plan Period: %s\n", s.Values.PlanPeriod)
		fmt.Printf("Statuses: %s\n", strings.Join(s.Values.Statuses, ", "))
		fmt.Printf("Programs: %s\n", strings.Join(s.Values.Programs, ", "))
		fmt.Printf("Divisions: %s\n", strings.Join(s.Values.Divisions, ", "))
		if s.Values.NeedsAttention {
			fmt.Println("Needs Attention: yes")
		}
		return nil
	},
}

var searchUseCmd = &cobra.Command{
	Use:   "use <id-or-name>",
	Short: "Apply a saved search when the plan list opens",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		s, err := database.GetSavedSearch(args[0])
		if err != nil {
			return fmt.Errorf("saved search %q: %w", args[0], err)
		}
		if err := config.SetActiveSearch(getBaseDir(), s.ID); err != nil {
			return err
		}
		output.Success("Using search %s", s.Name)
		return nil
	},
}

var searchClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Stop applying a saved search",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.ClearActiveSearch(getBaseDir()); err != nil {
			return err
		}
		output.Success("Cleared active search")
		return nil
	},
}

var searchDeleteCmd = &cobra.Command{
	Use:     "delete <id-or-name>",
	Aliases: []string{"rm"},
	Short:   "Delete a saved search",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		s, err := database.GetSavedSearch(args[0])
		if err != nil {
			return fmt.Errorf("saved search %q: %w", args[0], err)
		}
		if err := database.DeleteSavedSearch(s.ID); err != nil {
			return err
		}
		cfg, err := config.Load(getBaseDir())
		if err == nil && cfg.ActiveSearchID == s.ID {
			if err := config.ClearActiveSearch(getBaseDir()); err != nil {
				return err
			}
		}
		output.Success("Deleted search %s", s.Name)
		return nil
	},
}

// describeSearch summarizes the constraining values of a search
func describeSearch(v models.SearchValues) string {
	var parts []string
	if v.PlanNameLike != "" {
		parts = append(parts, "name~"+v.PlanNameLike)
	}
	if v.PlanPeriod != "" && v.PlanPeriod != grid.AllOption {
		parts = append(parts, "period="+v.PlanPeriod)
	}
	for _, f := range []struct {
		label  string
		values []string
	}{
		{"status", v.Statuses},
		{"program", v.Programs},
		{"division", v.Divisions},
	} {
		if len(f.values) > 0 && !slices.Contains(f.values, grid.AllOption) {
			parts = append(parts, f.label+"="+strings.Join(f.values, "|"))
		}
	}
	if v.NeedsAttention {
		parts = append(parts, "needs-attention")
	}
	if len(parts) == 0 {
		return "(all plans)"
	}
	return strings.Join(parts, " ")
}

// addSearchFlags registers the --search-* flags read by searchFromFlags
func addSearchFlags(fs *pflag.FlagSet) {
	fs.String("search-name", "", "Plan name contains")
	fs.String("search-period", "", "Plan period, e.g. FY-2026")
	fs.StringSlice("search-status", nil, "Plan statuses")
	fs.StringSlice("search-program", nil, "Programs")
	fs.StringSlice("search-division", nil, "Divisions")
	fs.Bool("needs-attention", false, "Only plans needing attention")
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.AddCommand(searchListCmd, searchSaveCmd, searchShowCmd, searchUseCmd, searchClearCmd, searchDeleteCmd)

	searchListCmd.Flags().Bool("json", false, "Machine-readable JSON")
	searchShowCmd.Flags().Bool("json", false, "Machine-readable JSON")
	addSearchFlags(searchSaveCmd.Flags())
	searchSaveCmd.Flags().Bool("use", false, "Also make it the active search")
}
