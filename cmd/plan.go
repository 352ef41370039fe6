package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/marcus/svp/internal/config"
	"github.com/marcus/svp/internal/db"
	"github.com/marcus/svp/internal/models"
	"github.com/marcus/svp/internal/output"
	"github.com/marcus/svp/internal/planlist"
	"github.com/marcus/svp/internal/suggest"
	"github.com/marcus/svp/internal/workflow"
	"github.com/marcus/svp/pkg/monitor"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var errViewOnly = errors.New("view-only access: plan changes are disabled")

// isViewOnly reports whether the project config restricts this user to
// reading plans
func isViewOnly() bool {
	cfg, err := config.Load(getBaseDir())
	return err == nil && cfg.ViewOnly
}

// parseStatus resolves a status name case-insensitively
func parseStatus(s string) (models.PlanStatus, error) {
	if st, ok := models.ParseStatus(s); ok {
		return st, nil
	}
	names := make([]string, len(models.AllStatuses))
	for i, st := range models.AllStatuses {
		names[i] = string(st)
	}
	msg := fmt.Sprintf("unknown status %q (want one of: %s)", s, strings.Join(names, ", "))
	if hint := suggest.Flag(s, names); len(hint) > 0 {
		msg = fmt.Sprintf("unknown status %q (did you mean %s?)", s, strings.Join(hint, ", "))
	}
	return "", errors.New(msg)
}

// parseSection resolves a section id or display name
func parseSection(s string) (string, error) {
	var ids []string
	for _, sec := range models.DefaultSections() {
		if strings.EqualFold(sec.ID, s) || strings.EqualFold(sec.Name, s) {
			return sec.ID, nil
		}
		ids = append(ids, sec.ID)
	}
	msg := fmt.Sprintf("unknown section %q (want one of: %s)", s, strings.Join(ids, ", "))
	if hint := suggest.Flag(s, ids); len(hint) > 0 {
		msg = fmt.Sprintf("unknown section %q (did you mean %s?)", s, strings.Join(hint, ", "))
	}
	return "", errors.New(msg)
}

// explainIncomplete names the sections that block completing a plan
func explainIncomplete(err error) error {
	var inc *db.IncompleteSectionsError
	if errors.As(err, &inc) {
		return fmt.Errorf("%w: %s", db.ErrIncompleteSections, strings.Join(inc.Sections, ", "))
	}
	return err
}

// confirm asks a yes/no question, answering no when stdin is not a terminal
func confirm(title, description, yes, no string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, nil
	}
	var ok bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Description(description).
			Affirmative(yes).
			Negative(no).
			Value(&ok),
	))
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

var statusCmd = &cobra.Command{
	Use:   "status <plan> [status]",
	Short: "Show or change a plan's status",
	Long: `Change a plan's status. Completing a plan requires every section to be
Complete. Without a status, show the current one and where it can go.

Examples:
  svp status PSV-000012 complete
  svp status 12 "not started"
  svp status 12`,
	GroupID: "plans",
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			return showTransitions(args[0])
		}
		if isViewOnly() {
			return errViewOnly
		}
		status, err := parseStatus(args[1])
		if err != nil {
			return err
		}
		if status == models.StatusCanceled {
			return errors.New("use: svp cancel " + args[0])
		}
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		before, err := database.GetPlan(args[0])
		if err != nil {
			return err
		}
		plan, err := database.UpdatePlanStatus(before.ID, status)
		if err != nil {
			return explainIncomplete(err)
		}
		if before.Status == plan.Status {
			output.Info("%s is already %s", plan.Code, output.FormatStatus(plan.Status))
			return nil
		}
		output.Success("%s: %s, now %s", plan.Code, workflow.TransitionName(before.Status, plan.Status), output.FormatStatus(plan.Status))
		return nil
	},
}

// showTransitions prints the plan's status and the statuses it can move to
func showTransitions(id string) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close()

	plan, err := database.GetPlan(id)
	if err != nil {
		return err
	}
	fmt.Printf("%s is %s\n", plan.Code, output.FormatStatus(plan.Status))
	for _, to := range workflow.GetTransitionsFrom(plan.Status) {
		fmt.Printf("  %-18s %s\n", workflow.TransitionName(plan.Status, to), to)
	}
	if incomplete := plan.IncompleteSections(); len(incomplete) > 0 && !plan.IsComplete() {
		fmt.Printf("Incomplete sections: %s\n", strings.Join(incomplete, ", "))
	}
	return nil
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <plan>",
	Short: "Cancel a plan",
	Long: `Mark a plan Canceled. The plan is kept for reference. Completed plans
cannot be canceled.`,
	GroupID: "plans",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if isViewOnly() {
			return errViewOnly
		}
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		plan, err := database.GetPlan(args[0])
		if err != nil {
			return err
		}
		if plan.IsComplete() {
			return monitor.ErrCompletedPlan
		}
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			ok, err := confirm(planlist.CancelTitle+" "+plan.Code, planlist.CancelMessage,
				planlist.CancelConfirmLabel, planlist.CancelKeepLabel)
			if err != nil {
				return err
			}
			if !ok {
				output.Info("Kept %s", plan.Code)
				return nil
			}
		}

		canceled, err := monitor.NewDBSource(database).CancelPlan(context.Background(), plan.ID)
		if err != nil {
			return err
		}
		output.Success("Canceled %s", output.FormatPlanShort(canceled))
		return nil
	},
}

var sectionCmd = &cobra.Command{
	Use:   "section <plan> <section> <status>",
	Short: "Change the status of a plan section",
	Long: `Change the status of one plan section. Sections are cover_sheet,
selected_entities and identified_site_visits.`,
	GroupID: "plans",
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if isViewOnly() {
			return errViewOnly
		}
		sectionID, err := parseSection(args[1])
		if err != nil {
			return err
		}
		status, err := parseStatus(args[2])
		if err != nil {
			return err
		}
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		plan, err := database.UpdateSectionStatus(args[0], sectionID, status)
		if err != nil {
			return err
		}
		output.Success("%s: %s is now %s", plan.Code, models.SectionName(sectionID), output.FormatStatus(status))
		if remaining := plan.IncompleteSections(); len(remaining) == 0 && !plan.IsComplete() {
			output.Info("All sections complete. Run: svp status %s complete", plan.Code)
		}
		return nil
	},
}

var coversheetCmd = &cobra.Command{
	Use:     "coversheet <plan>",
	Short:   "Edit a plan's name and description",
	GroupID: "plans",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if isViewOnly() {
			return errViewOnly
		}
		fs := cmd.Flags()
		if !fs.Changed("name") && !fs.Changed("description") {
			return errors.New("nothing to change: pass --name or --description")
		}
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		plan, err := database.GetPlan(args[0])
		if err != nil {
			return err
		}
		name, desc := plan.Name, plan.Description
		if fs.Changed("name") {
			name, _ = fs.GetString("name")
			if strings.TrimSpace(name) == "" {
				return errors.New("plan name cannot be empty")
			}
		}
		if fs.Changed("description") {
			desc, _ = fs.GetString("description")
		}

		updated, err := database.UpdateCoversheet(plan.ID, name, desc)
		if err != nil {
			return err
		}
		output.Success("Updated %s", output.FormatPlanShort(updated))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(sectionCmd)
	rootCmd.AddCommand(coversheetCmd)

	cancelCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")

	coversheetCmd.Flags().String("name", "", "New plan name")
	coversheetCmd.Flags().String("description", "", "New plan description")
}
