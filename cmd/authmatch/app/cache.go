package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/authmatch/internal/cmd/output"
	"github.com/agentstation/authmatch/pkg/authority"
)

// NewCacheCommand creates the cache command group.
func (a *App) NewCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect saved authority cache snapshots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(a.newCacheShowCommand())
	return cmd
}

func (a *App) newCacheShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <file>",
		Short: "Print the authorities held in a snapshot",
		Long: `Show prints every authority in a snapshot written by
"authmatch compare --cache-out". Use --format wide to list subfield values.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			format, err := output.ParseFormat(a.config.Format)
			if err != nil {
				return err
			}
			file, err := authority.LoadSnapshotFile(args[0])
			if err != nil {
				return err
			}
			return output.FormatSnapshot(a.stdout, file, output.DetectFormat(string(format)))
		},
	}
}
