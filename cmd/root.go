package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/marcus/svp/internal/db"
	"github.com/marcus/svp/internal/output"
	"github.com/marcus/svp/internal/suggest"
	"github.com/marcus/svp/internal/workdir"
	"github.com/spf13/cobra"
)

var (
	version string
	baseDir string
)

// SetVersion sets the version string
func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "svp",
	Short: "Site visit plan case management",
	Long: `svp - Site Visit Plan case management.

Browse, search, initiate and track site visit plans from the terminal.
Plans live in a local SQLite database under .svp/ and can be shared over
HTTP with 'svp serve'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if strings.HasPrefix(err.Error(), "unknown command") {
			if hint := commandHint(firstNonFlagArg(os.Args[1:])); hint != "" {
				output.Error("%v\n\n%s", err, hint)
				os.Exit(1)
			}
		}
		output.Error("%v", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initBaseDir)

	rootCmd.AddGroup(
		&cobra.Group{ID: "plans", Title: "Plan Commands:"},
		&cobra.Group{ID: "searches", Title: "Search Commands:"},
		&cobra.Group{ID: "system", Title: "System Commands:"},
	)
	rootCmd.PersistentFlags().StringVarP(&baseDir, "dir", "C", "", "Project directory (default: current directory)")
}

func initBaseDir() {
	if baseDir != "" {
		return
	}
	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot determine working directory: %v\n", err)
		os.Exit(1)
	}
	baseDir = workdir.ResolveBaseDir(wd)
}

// getBaseDir returns the base directory for the project
func getBaseDir() string {
	return baseDir
}

// openDB opens the project database. Errors are reported once by Execute.
func openDB() (*db.DB, error) {
	return db.Open(getBaseDir())
}

// firstNonFlagArg returns the first argument that is not a flag
func firstNonFlagArg(args []string) string {
	for _, a := range args {
		if !strings.HasPrefix(a, "-") {
			return a
		}
	}
	return ""
}

// commandHint suggests subcommands close to a mistyped name
func commandHint(name string) string {
	var names []string
	for _, c := range rootCmd.Commands() {
		if c.IsAvailableCommand() {
			names = append(names, c.Name())
		}
	}
	matches := suggest.Command(name, names)
	if len(matches) == 0 {
		return ""
	}
	return "Did you mean: svp " + strings.Join(matches, ", svp ") + "?"
}
