package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/marcus/svp/internal/config"
	"github.com/marcus/svp/internal/grid"
	"github.com/marcus/svp/internal/output"
	"github.com/marcus/svp/internal/planlist"
	"github.com/marcus/svp/internal/suggest"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Show and change project settings",
	GroupID: "system",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the project settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(getBaseDir())
		if err != nil {
			return err
		}
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return output.JSON(cfg)
		}
		username, _ := config.GetUsername(getBaseDir())
		fmt.Printf("username:        %s\n", username)
		fmt.Printf("page-size:       %d\n", cfg.PageSize())
		fmt.Printf("session-timeout: %s (warn %s before)\n", cfg.SessionTimeout(), cfg.SessionWarning())
		fmt.Printf("view-only:       %t\n", cfg.ViewOnly)
		if cfg.ServerURL != "" {
			fmt.Printf("server:          %s\n", cfg.ServerURL)
		}
		if cfg.Token != "" {
			fmt.Println("token:           (set)")
		}
		if cfg.ActiveSearchID != "" {
			fmt.Printf("active search:   %s\n", cfg.ActiveSearchID)
		}
		fmt.Printf("grid overrides:  %s\n", config.GridPath(getBaseDir()))
		return nil
	},
}

// configKeys are the settings accepted by config set
var configKeys = []string{"username", "page-size", "server", "token", "view-only", "session-timeout", "session-warning"}

// setConfigValue applies one config set key
func setConfigValue(dir, key, value string) error {
	positive := func() (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%s must be a non-negative number, got %q", key, value)
		}
		return n, nil
	}

	switch key {
	case "username":
		return config.SetUsername(dir, value)
	case "page-size":
		n, err := positive()
		if err != nil {
			return err
		}
		return config.SetDefaultPageSize(dir, n)
	case "server":
		cfg, err := config.Load(dir)
		if err != nil {
			return err
		}
		return config.SetServer(dir, value, cfg.Token)
	case "token":
		cfg, err := config.Load(dir)
		if err != nil {
			return err
		}
		return config.SetServer(dir, cfg.ServerURL, value)
	case "view-only":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("view-only must be true or false, got %q", value)
		}
		return config.SetViewOnly(dir, b)
	case "session-timeout", "session-warning":
		n, err := positive()
		if err != nil {
			return err
		}
		cfg, err := config.Load(dir)
		if err != nil {
			return err
		}
		timeout, warning := cfg.SessionTimeoutMinutes, cfg.SessionWarningMinutes
		if key == "session-timeout" {
			timeout = n
		} else {
			warning = n
		}
		return config.SetSessionTimeout(dir, timeout, warning)
	}

	msg := fmt.Sprintf("unknown setting %q (want one of: %s)", key, strings.Join(configKeys, ", "))
	if hint := suggest.Flag(key, configKeys); len(hint) > 0 {
		msg = fmt.Sprintf("unknown setting %q (did you mean %s?)", key, strings.Join(hint, ", "))
	}
	return errors.New(msg)
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a project setting",
	Long: `Change a project setting. Keys: username, page-size, server, token,
view-only, session-timeout and session-warning (minutes).`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setConfigValue(getBaseDir(), args[0], args[1]); err != nil {
			return err
		}
		output.Success("Set %s", args[0])
		return nil
	},
}

var configGridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Write the plan list layout to .svp/grid.yaml for local editing",
	Long: `Write the current plan list layout (columns, centered columns, row
actions and page sizes) to .svp/grid.yaml. Edits to that file override
the stored layout for this checkout.`,
	Args: cobra.NoArgs,
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
		pageSizes := grid.DefaultPageSizes
		if o, err := config.LoadGridOverrides(getBaseDir()); err == nil && o != nil && len(o.PageSizes) > 0 {
			pageSizes = o.PageSizes
		}
		if err := config.SaveGridOverrides(getBaseDir(), cfg, pageSizes); err != nil {
			return err
		}
		output.Success("Wrote %s", config.GridPath(getBaseDir()))
		return nil
	},
}

var configMenuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Show the navigation menu and header links",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		nav, err := database.HeaderNav()
		if err != nil {
			return err
		}
		items, err := database.Menu()
		if err != nil {
			return err
		}
		for _, n := range nav {
			fmt.Printf("%s  %s\n", n.Label, n.Href)
		}
		if len(nav) > 0 {
			fmt.Println()
		}
		for _, line := range output.RenderTreeLines(output.MenuNodes(items), output.TreeRenderOptions{}) {
			fmt.Println(line)
		}
		return nil
	},
}

var configColumnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "List the plan list columns",
	Args:  cobra.NoArgs,
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
		layout := planlist.ResolveLayout(cfg)
		for i, c := range layout.Columns {
			var traits []string
			if c.IsSortable() {
				traits = append(traits, "sortable")
			}
			if c.IsSelectFilter() {
				traits = append(traits, "select filter")
			} else if c.IsFilterable() {
				traits = append(traits, "text filter")
			}
			if layout.IsCentered(i) {
				traits = append(traits, "centered")
			}
			fmt.Printf("%-18s %-20s %s\n", c.Key, c.DisplayLabel(), strings.Join(traits, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configSetCmd, configGridCmd, configMenuCmd, configColumnsCmd)

	configShowCmd.Flags().Bool("json", false, "Machine-readable JSON")
}
