package cli

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeafCommandBuild(t *testing.T) {
	cmd := LeafCommand{
		Use:   "demo",
		Short: "demo command",
		BoolFlags: []BoolFlag{
			{Name: "force", Usage: "force it"},
		},
		StrFlags: []StringFlag{
			{Name: "name", Usage: "a name", Default: "x"},
		},
		IntFlags: []IntFlag{
			{Name: "count", Usage: "a count", Default: 3},
		},
		RunE: func(cmd *cobra.Command, args []string) error { return nil },
	}.Build()

	assert.Equal(t, "demo", cmd.Use)

	force, err := cmd.Flags().GetBool("force")
	require.NoError(t, err)
	assert.False(t, force)

	name, err := cmd.Flags().GetString("name")
	require.NoError(t, err)
	assert.Equal(t, "x", name)

	count, err := cmd.Flags().GetInt("count")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestGroupCommandBuild(t *testing.T) {
	sub := &cobra.Command{Use: "sub"}
	cmd := GroupCommand{
		Use:         "group",
		Short:       "a group",
		Subcommands: []*cobra.Command{sub},
	}.Build()

	require.Len(t, cmd.Commands(), 1)
	assert.Equal(t, "sub", cmd.Commands()[0].Use)
}

func TestRootRegistersCommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"run", "sync", "status", "config", "version", "completion"} {
		assert.True(t, names[want], "missing command %q", want)
	}
}
