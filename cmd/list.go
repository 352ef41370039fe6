package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/marcus/svp/internal/client"
	"github.com/marcus/svp/internal/config"
	"github.com/marcus/svp/internal/db"
	"github.com/marcus/svp/internal/grid"
	"github.com/marcus/svp/internal/models"
	"github.com/marcus/svp/internal/output"
	"github.com/marcus/svp/internal/planlist"
	"github.com/marcus/svp/internal/suggest"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

// sortFlag collects repeated --sort values into a sort order. Each value
// is key, key:asc or key:desc; a comma separated list also works.
type sortFlag struct {
	order grid.SortOrder
}

var _ pflag.Value = (*sortFlag)(nil)

func (f *sortFlag) String() string { return f.order.String() }

func (f *sortFlag) Type() string { return "key[:dir]" }

func (f *sortFlag) Set(s string) error {
	order, err := grid.ParseSortOrder(s)
	if err != nil {
		return err
	}
	for _, e := range order {
		if _, _, ok := f.order.Entry(e.Key); ok {
			return fmt.Errorf("column %q sorted twice", e.Key)
		}
		f.order = append(f.order, e)
	}
	return nil
}

// parseFilters turns key=value arguments into column filters
func parseFilters(args []string) (grid.Filters, error) {
	f := grid.Filters{}
	for _, a := range args {
		key, value, ok := strings.Cut(a, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q (want key=value)", a)
		}
		f[key] = value
	}
	return f, nil
}

// checkColumn reports an unknown column key with the closest known keys
func checkColumn(cols []grid.Column, key, flag string) error {
	if _, ok := grid.FindColumn(cols, key); ok {
		return nil
	}
	msg := fmt.Sprintf("unknown column %q in --%s", key, flag)
	if hint := suggest.Flag(key, grid.ColumnKeys(cols)); len(hint) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(hint, ", "))
	}
	if alias := suggest.GetFlagHint(key); alias != "" {
		msg += fmt.Sprintf(" (hint: %s)", alias)
	}
	return fmt.Errorf("%s", msg)
}

// listQuery is everything that shapes one page of the plan list
type listQuery struct {
	Filters  grid.Filters
	Sort     grid.SortOrder
	Page     int
	PageSize int
	Search   models.SearchValues
	ViewOnly bool
}

// buildPlanGrid runs plans through the search and the grid pipeline
func buildPlanGrid(plans []models.Plan, cfg *models.GridConfig, q listQuery) (*grid.Grid, planlist.Layout, error) {
	layout := planlist.ResolveLayout(cfg)
	for key := range q.Filters {
		if err := checkColumn(layout.Columns, key, "filter"); err != nil {
			return nil, layout, err
		}
	}
	for _, e := range q.Sort {
		if err := checkColumn(layout.Columns, e.Key, "sort"); err != nil {
			return nil, layout, err
		}
	}

	if planlist.IsActive(q.Search) {
		plans = planlist.Apply(plans, q.Search)
	}
	opts := planlist.GridOptions(layout, q.ViewOnly)
	if q.PageSize > 0 {
		opts = append(opts, grid.WithPageSize(q.PageSize))
	}
	g := grid.New(layout.Columns, opts...)
	g.SetData(models.PlanRows(plans))
	for key, value := range q.Filters {
		g.SetFilter(key, value)
	}
	g.SetSortOrder(q.Sort)
	if q.Page > 0 {
		g.SetPage(q.Page)
	}
	return g, layout, nil
}

// searchFromFlags layers the --search-* flags over base
func searchFromFlags(fs *pflag.FlagSet, base models.SearchValues) models.SearchValues {
	v := base
	if fs.Changed("search-name") {
		v.PlanNameLike, _ = fs.GetString("search-name")
	}
	if fs.Changed("search-period") {
		v.PlanPeriod, _ = fs.GetString("search-period")
	}
	if fs.Changed("search-status") {
		v.Statuses, _ = fs.GetStringSlice("search-status")
	}
	if fs.Changed("search-program") {
		v.Programs, _ = fs.GetStringSlice("search-program")
	}
	if fs.Changed("search-division") {
		v.Divisions, _ = fs.GetStringSlice("search-division")
	}
	if fs.Changed("needs-attention") {
		v.NeedsAttention, _ = fs.GetBool("needs-attention")
	}
	return v
}

// terminalWidth returns the stdout width, or 0 when not a terminal
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return w
}

var listSort sortFlag

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Show one page of the plan list",
	Long: `Show one page of the plan list with the same filtering, sorting and
paging as the interactive list.

Examples:
  svp list --sort status --sort plan_name:desc
  svp list --filter status=Complete --page 2
  svp list --search-status "In Progress" --search-name clinic
  svp list --saved "My plans"`,
	GroupID: "plans",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func runList(cmd *cobra.Command, args []string) error {
	dir := getBaseDir()
	fs := cmd.Flags()

	filterArgs, _ := fs.GetStringArray("filter")
	filters, err := parseFilters(filterArgs)
	if err != nil {
		return err
	}
	page, _ := fs.GetInt("page")
	pageSize, _ := fs.GetInt("page-size")

	cfgFile, err := config.Load(dir)
	if err != nil {
		return err
	}
	if pageSize <= 0 {
		pageSize = cfgFile.PageSize()
	}

	if remote, _ := fs.GetBool("remote"); remote {
		return listRemote(cmd, cfgFile, filters, page, pageSize)
	}

	database, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close()

	cfg, err := loadGridConfig(database)
	if err != nil {
		return err
	}
	search := cfg.DefaultSearchValues
	if saved, _ := fs.GetString("saved"); saved != "" {
		s, err := database.GetSavedSearch(saved)
		if err != nil {
			return fmt.Errorf("saved search %q: %w", saved, err)
		}
		search = planlist.Merge(search, s.Values)
	}
	search = searchFromFlags(fs, search)

	plans, err := database.ListPlans(cfgFile.Username)
	if err != nil {
		return err
	}

	g, layout, err := buildPlanGrid(plans, cfg, listQuery{
		Filters:  filters,
		Sort:     listSort.order,
		Page:     page,
		PageSize: pageSize,
		Search:   search,
		ViewOnly: cfgFile.ViewOnly,
	})
	if err != nil {
		return err
	}

	if jsonOutput, _ := fs.GetBool("json"); jsonOutput {
		return output.JSON(gridJSON(g))
	}
	if planlist.IsActive(search) {
		output.Warning("%s", planlist.FilterBanner)
	}
	fmt.Print(output.RenderGrid(g, output.GridView{
		Width:    terminalWidth(),
		Centered: layout.IsCentered,
		Actions:  true,
		Banner:   "Column filters: " + describeFilters(g),
	}))
	printPager(g)
	return nil
}

// loadGridConfig returns the stored layout with local overrides applied,
// falling back to the built-in layout on an empty database
func loadGridConfig(database *db.DB) (*models.GridConfig, error) {
	cfg, err := database.GetGridConfig()
	if err != nil {
		return nil, err
	}
	if len(cfg.Columns) == 0 && len(cfg.RowActions) == 0 {
		cfg = planlist.DefaultGridConfig()
	}
	overrides, err := config.LoadGridOverrides(getBaseDir())
	if err != nil {
		slog.Warn("ignoring grid overrides", "err", err)
		return cfg, nil
	}
	return overrides.Apply(cfg), nil
}

// listRemote shows a page computed by a running server
func listRemote(cmd *cobra.Command, cfgFile *models.Config, filters grid.Filters, page, pageSize int) error {
	c, err := serverClient(cfgFile)
	if err != nil {
		return err
	}
	saved, _ := cmd.Flags().GetString("saved")
	res, err := c.PlanGrid(context.Background(), client.GridQuery{
		Search:   saved,
		Username: cfgFile.Username,
		Filters:  filters,
		Sort:     listSort.order,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return err
	}

	g := grid.New(res.Columns, grid.WithPageSize(max(1, len(res.Rows))))
	g.SetData(res.Rows)
	g.SetSortOrder(res.Sort)
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return output.JSON(res)
	}
	fmt.Print(output.RenderGrid(g, output.GridView{Width: terminalWidth()}))
	fmt.Printf("%s   %s\n", output.PageStrip(res.PageItems, res.Page), output.RangeSummary(res.Page, res.PageSize, res.Total))
	return nil
}

// serverClient connects to the configured server, or the local one
func serverClient(cfgFile *models.Config) (*client.Client, error) {
	if cfgFile.ServerURL != "" {
		return client.New(cfgFile.ServerURL, cfgFile.Token), nil
	}
	return client.Discover(getBaseDir(), cfgFile.Token)
}

func describeFilters(g *grid.Grid) string {
	var parts []string
	for _, c := range g.Columns() {
		if v, ok := g.Filters().Active(c); ok {
			parts = append(parts, c.DisplayLabel()+"="+v)
		}
	}
	return strings.Join(parts, ", ")
}

func printPager(g *grid.Grid) {
	if g.TotalPages() > 1 {
		fmt.Printf("\n%s   %s\n", output.PageStrip(g.PageItems(), g.Page()), output.RangeSummary(g.Page(), g.PageSize(), g.Total()))
		return
	}
	fmt.Printf("\n%s\n", output.RangeSummary(g.Page(), g.PageSize(), g.Total()))
}

// gridJSON is the machine-readable form of the current page
func gridJSON(g *grid.Grid) map[string]interface{} {
	order := g.SortOrder()
	if order == nil {
		order = grid.SortOrder{}
	}
	return map[string]interface{}{
		"columns":     g.Columns(),
		"rows":        append([]grid.Row{}, g.Rows()...),
		"total":       g.Total(),
		"page":        g.Page(),
		"page_size":   g.PageSize(),
		"total_pages": g.TotalPages(),
		"page_items":  g.PageItems(),
		"sort":        order,
		"filters":     g.Filters(),
	}
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringArrayP("filter", "f", nil, "Column filter key=value (repeatable)")
	listCmd.Flags().VarP(&listSort, "sort", "s", "Sort by column, key[:asc|desc] (repeatable, first is primary)")
	listCmd.Flags().Int("page", 1, "Page number")
	listCmd.Flags().Int("page-size", 0, "Rows per page (default from config)")
	listCmd.Flags().String("saved", "", "Apply a saved search by id or name")
	addSearchFlags(listCmd.Flags())
	listCmd.Flags().Bool("remote", false, "Ask the running server instead of the local database")
	listCmd.Flags().Bool("json", false, "Machine-readable JSON")
}
