package cmd

import (
	"fmt"
	"os"

	"github.com/marcus/svp/internal/config"
	"github.com/marcus/svp/internal/db"
	"github.com/marcus/svp/internal/output"
	"github.com/marcus/svp/internal/planlist"
	"github.com/marcus/svp/internal/session"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the plan database in the current project",
	Long: `Create .svp/ with an empty plan database, the default plan list
layout and, unless --empty is given, a set of sample plans.`,
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := getBaseDir()

		existed := false
		if _, err := os.Stat(db.Path(dir)); err == nil {
			existed = true
		}

		database, err := db.Initialize(dir)
		if err != nil {
			return err
		}
		defer database.Close()

		empty, _ := cmd.Flags().GetBool("empty")
		if empty {
			if err := seedConfigOnly(database); err != nil {
				return err
			}
		} else if seeded, err := database.Seed(planlist.DefaultGridConfig()); err != nil {
			return fmt.Errorf("seed: %w", err)
		} else if seeded {
			output.Info("Added sample plans")
		}

		if username, _ := cmd.Flags().GetString("username"); username != "" {
			if err := config.SetUsername(dir, username); err != nil {
				return err
			}
		}
		username, _ := config.GetUsername(dir)
		sess, err := session.Start(dir, username)
		if err != nil {
			return err
		}

		if existed {
			output.Success("Already initialized %s", db.Path(dir))
		} else {
			output.Success("Initialized %s", db.Path(dir))
		}
		output.Info("Session: %s", sess.ID)
		return nil
	},
}

// seedConfigOnly stores the default layout without sample plans
func seedConfigOnly(database *db.DB) error {
	cfg, err := database.GetGridConfig()
	if err != nil {
		return err
	}
	if len(cfg.Columns) > 0 {
		return nil
	}
	return database.SaveGridConfig(planlist.DefaultGridConfig())
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().Bool("empty", false, "Skip the sample plans")
	initCmd.Flags().StringP("username", "u", "", "Username recorded when plans are opened")
}
