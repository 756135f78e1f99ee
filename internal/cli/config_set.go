package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BlyZeDev/tempocal/internal/config"
)

var configSetCmd = LeafCommand{
	Use:   "set KEY VALUE",
	Short: "Set a config value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath(cmd)
		if err != nil {
			return err
		}
		return runConfigSet(cmd, path, args[0], args[1])
	},
}.Build()

func runConfigSet(cmd *cobra.Command, path, key, value string) error {
	if !isSettableKey(key) {
		return fmt.Errorf("unknown config key: %s (valid: %s)", key, strings.Join(settableKeys, ", "))
	}

	_, v, err := config.Load(path)
	if err != nil {
		return err
	}
	v.Set(key, value)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}

	shown := value
	if strings.HasSuffix(key, "api_token") {
		shown = "********"
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", Text(fmt.Sprintf("%s = %s", Primary(key), shown)))
	return nil
}
