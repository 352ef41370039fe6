package cmd

import (
	"fmt"

	"github.com/marcus/svp/internal/config"
	"github.com/marcus/svp/internal/output"
	"github.com/marcus/svp/pkg/monitor"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:     "show <plan>...",
	Aliases: []string{"view"},
	Short:   "Show plan details",
	Long: `Show one or more plans by id or code (e.g. 12 or PSV-000012).

Opening a plan with --open records it as recently accessed, like the
Edit Plan action in the list.`,
	GroupID: "plans",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close()

	jsonOutput, _ := cmd.Flags().GetBool("json")
	short, _ := cmd.Flags().GetBool("short")
	render, _ := cmd.Flags().GetBool("render")
	open, _ := cmd.Flags().GetBool("open")

	var username string
	if open {
		if username, err = config.GetUsername(getBaseDir()); err != nil {
			return err
		}
	}

	var failed int
	for i, id := range args {
		plan, err := database.GetPlan(id)
		if err != nil {
			output.Error("%s: %v", id, err)
			failed++
			continue
		}
		if open && username != "" {
			if err := database.RecordAccess(username, plan.ID); err != nil {
				output.Warning("record access for %s: %v", plan.Code, err)
			}
		}

		switch {
		case jsonOutput:
			if err := output.JSON(plan); err != nil {
				return err
			}
		case short:
			fmt.Println(output.FormatPlanShort(plan))
		case render:
			fmt.Print(monitor.RenderPlanMarkdown(plan, max(40, terminalWidth()-4)))
		default:
			if i > 0 {
				fmt.Println()
			}
			fmt.Print(output.FormatPlanLong(plan))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d plans not shown", failed, len(args))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().Bool("json", false, "Machine-readable JSON")
	showCmd.Flags().Bool("short", false, "One line per plan")
	showCmd.Flags().Bool("render", false, "Render as formatted markdown")
	showCmd.Flags().Bool("open", false, "Record the plan as recently accessed")
	showCmd.MarkFlagsMutuallyExclusive("json", "short", "render")
}
