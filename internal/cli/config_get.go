package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/BlyZeDev/tempocal/internal/config"
)

var configGetCmd = LeafCommand{
	Use:   "get [KEY]",
	Short: "Print one config value, or all of them",
	Args:  cobra.RangeArgs(0, 1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath(cmd)
		if err != nil {
			return err
		}
		_, v, err := config.Load(path)
		if err != nil {
			return err
		}
		key := ""
		if len(args) > 0 {
			key = args[0]
		}
		return runConfigGet(cmd, v, key)
	},
}.Build()

func runConfigGet(cmd *cobra.Command, v *viper.Viper, key string) error {
	w := cmd.OutOrStdout()

	if key != "" {
		if !isSettableKey(key) {
			return fmt.Errorf("unknown config key: %s (valid: %s)", key, strings.Join(settableKeys, ", "))
		}
		_, _ = fmt.Fprintf(w, "%s\n", Text(fmt.Sprintf("%v", v.Get(key))))
		return nil
	}

	for _, k := range settableKeys {
		val := fmt.Sprintf("%v", v.Get(k))
		if strings.HasSuffix(k, "api_token") && val != "" {
			val = "********"
		}
		if val == "" {
			_, _ = fmt.Fprintf(w, "%s %s\n", Primary(k+":"), Silent("(unset)"))
			continue
		}
		_, _ = fmt.Fprintf(w, "%s %s\n", Primary(k+":"), Text(val))
	}
	return nil
}
