package cmd

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/marcus/svp/internal/db"
	"github.com/marcus/svp/internal/models"
	"github.com/marcus/svp/internal/output"
	"github.com/marcus/svp/internal/suggest"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var initiateCmd = &cobra.Command{
	Use:     "initiate <plan-name>",
	Aliases: []string{"new", "create"},
	Short:   "Initiate a new site visit plan",
	Long: `Initiate a new site visit plan for one bureau, division or program
over a fiscal or calendar year. The plan starts In Progress.

Examples:
  svp initiate "Spring visits" --program "Ryan White" --fiscal-year 2026
  svp initiate "Division review" --division "Division of Policy" --calendar-year 2025`,
	GroupID: "plans",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runInitiate,
}

// initiateRequestFromFlags builds the request from the command line. The
// entity flag that is set picks the plan-for type, likewise the year.
func initiateRequestFromFlags(fs *pflag.FlagSet, args []string) (models.InitiateRequest, error) {
	var req models.InitiateRequest
	if len(args) > 0 {
		req.PlanName = strings.TrimSpace(args[0])
	}
	if fs.Changed("name") {
		name, _ := fs.GetString("name")
		req.PlanName = strings.TrimSpace(name)
	}

	var entities []string
	for _, typ := range []string{db.OptionBureau, db.OptionDivision, db.OptionProgram} {
		if !fs.Changed(typ) {
			continue
		}
		v, _ := fs.GetString(typ)
		entities = append(entities, typ)
		req.PlanForType = typ
		switch typ {
		case db.OptionBureau:
			req.Bureau = v
		case db.OptionDivision:
			req.Division = v
		case db.OptionProgram:
			req.Program = v
		}
	}
	if len(entities) > 1 {
		return req, fmt.Errorf("choose one of --%s", strings.Join(entities, ", --"))
	}

	fiscal, calendar := fs.Changed("fiscal-year"), fs.Changed("calendar-year")
	switch {
	case fiscal && calendar:
		return req, errors.New("choose one of --fiscal-year, --calendar-year")
	case fiscal:
		req.PeriodType = "fiscal"
		req.FiscalYear, _ = fs.GetInt("fiscal-year")
	case calendar:
		req.PeriodType = "calendar"
		req.CalendarYear, _ = fs.GetInt("calendar-year")
	}
	req.Team, _ = fs.GetString("team")
	return req, nil
}

// flagNames maps request fields to the flags that set them
var flagNames = map[string]string{
	"PlanForType":  "--bureau, --division or --program",
	"Bureau":       "--bureau",
	"Division":     "--division",
	"Program":      "--program",
	"PeriodType":   "--fiscal-year or --calendar-year",
	"FiscalYear":   "--fiscal-year",
	"CalendarYear": "--calendar-year",
	"PlanName":     "a plan name",
}

// validateInitiate checks req field by field and against the offered
// options, naming the flag to fix
func validateInitiate(req models.InitiateRequest, opts *models.InitiateOptions) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		var msgs []string
		for _, fe := range verrs {
			name := flagNames[fe.Field()]
			if name == "" {
				name = fe.Field()
			}
			switch fe.Tag() {
			case "max":
				msgs = append(msgs, fmt.Sprintf("%s is too long (max %s)", name, fe.Param()))
			default:
				msgs = append(msgs, name+" is required")
			}
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	if opts == nil {
		return nil
	}

	check := func(flag, value string, offered []string) error {
		if len(offered) == 0 || slices.Contains(offered, value) {
			return nil
		}
		msg := fmt.Sprintf("unknown %s %q", flag, value)
		if hint := suggest.Flag(value, offered); len(hint) > 0 {
			msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(hint, ", "))
		}
		return errors.New(msg)
	}
	years := func(ys []int) []string {
		out := make([]string, len(ys))
		for i, y := range ys {
			out[i] = strconv.Itoa(y)
		}
		return out
	}

	var err error
	switch req.PlanForType {
	case db.OptionBureau:
		err = check("bureau", req.Bureau, opts.Bureaus)
	case db.OptionDivision:
		err = check("division", req.Division, opts.Divisions)
	case db.OptionProgram:
		err = check("program", req.Program, opts.Programs)
	}
	if err != nil {
		return err
	}
	switch req.PeriodType {
	case "fiscal":
		err = check("fiscal year", strconv.Itoa(req.FiscalYear), years(opts.FiscalYears))
	case "calendar":
		err = check("calendar year", strconv.Itoa(req.CalendarYear), years(opts.CalendarYears))
	}
	if err != nil {
		return err
	}
	if req.Team != "" {
		return check("team", req.Team, opts.Teams)
	}
	return nil
}

func runInitiate(cmd *cobra.Command, args []string) error {
	if isViewOnly() {
		return errViewOnly
	}
	req, err := initiateRequestFromFlags(cmd.Flags(), args)
	if err != nil {
		return err
	}

	database, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close()

	opts, err := database.InitiateOptions()
	if err != nil {
		return err
	}
	if err := validateInitiate(req, opts); err != nil {
		return err
	}

	plan, err := database.CreatePlan(req)
	if err != nil {
		return err
	}
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return output.JSON(plan)
	}
	output.Success("Initiated %s", output.FormatPlanShort(plan))
	return nil
}

// addInitiateFlags registers the flags read by initiateRequestFromFlags
func addInitiateFlags(fs *pflag.FlagSet) {
	fs.String("name", "", "Plan name (instead of the argument)")
	fs.String(db.OptionBureau, "", "Plan for a bureau")
	fs.String(db.OptionDivision, "", "Plan for a division")
	fs.String(db.OptionProgram, "", "Plan for a program")
	fs.Int("fiscal-year", 0, "Fiscal year of the plan period")
	fs.Int("calendar-year", 0, "Calendar year of the plan period")
	fs.String("team", "", "Team assigned to the plan")
}

func init() {
	rootCmd.AddCommand(initiateCmd)

	addInitiateFlags(initiateCmd.Flags())
	initiateCmd.Flags().Bool("json", false, "Machine-readable JSON")
}
