package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tempocal",
	Short: "Mirror Tempo planning entries into an iCalendar file",
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to the config file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
}

func Execute() error {
	return rootCmd.Execute()
}
