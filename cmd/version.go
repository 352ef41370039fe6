package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Print the svp version",
	GroupID: "system",
	Run: func(cmd *cobra.Command, args []string) {
		v := version
		if v == "" {
			v = "dev"
		}
		fmt.Printf("svp %s\n", v)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
