package cli

import (
	"github.com/spf13/cobra"
)

// settableKeys lists the config keys exposed through 'config get' and
// 'config set'.
var settableKeys = []string{
	"tempo.base_url",
	"tempo.api_token",
	"tempo.user_id",
	"jira.base_url",
	"jira.email",
	"jira.api_token",
	"calendar.path",
	"sync.interval",
	"sync.cron",
	"sync.lookback_days",
	"sync.horizon_days",
	"log.level",
	"log.format",
}

var configCmd = GroupCommand{
	Use:   "config",
	Short: "Manage the tempocal configuration",
	Subcommands: []*cobra.Command{
		configInitCmd,
		configGetCmd,
		configSetCmd,
		configPathCmd,
	},
}.Build()

func isSettableKey(key string) bool {
	for _, k := range settableKeys {
		if k == key {
			return true
		}
	}
	return false
}
