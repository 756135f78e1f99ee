package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configPathCmd = LeafCommand{
	Use:   "path",
	Short: "Print the config file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath(cmd)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", Text(path))
		return nil
	},
}.Build()
