package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BlyZeDev/tempocal/internal/config"
)

var configInitCmd = LeafCommand{
	Use:   "init",
	Short: "Interactively create the configuration file",
	BoolFlags: []BoolFlag{
		{Name: "force", Usage: "overwrite an existing configuration file"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath(cmd)
		if err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")
		return runConfigInit(cmd, path, force, NewPromptFunc(), NewSecretPromptFunc(), NewConfirmFunc())
	},
}.Build()

func runConfigInit(cmd *cobra.Command, path string, force bool, prompt, secret PromptFunc, confirm ConfirmFunc) error {
	w := cmd.OutOrStdout()

	if _, err := os.Stat(path); err == nil && !force {
		overwrite, err := confirm(fmt.Sprintf("Config file %s already exists. Overwrite?", path))
		if err != nil {
			return err
		}
		if !overwrite {
			_, _ = fmt.Fprintf(w, "%s\n", Silent("aborted"))
			return nil
		}
	}

	_, _ = fmt.Fprintf(w, "%s\n\n", Text("Setting up "+Primary("tempocal")))

	tempoToken, err := promptRequired(secret, "Tempo API token")
	if err != nil {
		return err
	}
	tempoUser, err := promptRequired(prompt, "Tempo account ID")
	if err != nil {
		return err
	}
	jiraURL, err := promptRequired(prompt, "Jira base URL (e.g. https://yourcompany.atlassian.net)")
	if err != nil {
		return err
	}
	jiraEmail, err := promptRequired(prompt, "Jira account email")
	if err != nil {
		return err
	}
	jiraToken, err := promptRequired(secret, "Jira API token")
	if err != nil {
		return err
	}
	calendarPath, err := prompt("Calendar file path (leave empty for the default)")
	if err != nil {
		return err
	}

	v := config.New(path)
	v.Set("tempo.api_token", tempoToken)
	v.Set("tempo.user_id", tempoUser)
	v.Set("jira.base_url", strings.TrimRight(strings.TrimSpace(jiraURL), "/"))
	v.Set("jira.email", strings.TrimSpace(jiraEmail))
	v.Set("jira.api_token", jiraToken)
	if p := strings.TrimSpace(calendarPath); p != "" {
		v.Set("calendar.path", p)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(w, "\n%s\n", Text(fmt.Sprintf("config written to %s", Primary(path))))
	_, _ = fmt.Fprintf(w, "%s\n", Silent("run 'tempocal status' to verify connectivity"))
	return nil
}

func promptRequired(prompt PromptFunc, title string) (string, error) {
	for {
		input, err := prompt(title)
		if err != nil {
			return "", err
		}
		if input = strings.TrimSpace(input); input != "" {
			return input, nil
		}
	}
}
