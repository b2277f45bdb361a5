package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

// NewManCommand creates the hidden man page generator.
func (a *App) NewManCommand() *cobra.Command {
	return &cobra.Command{
		Use:    "man",
		Short:  "Generate man page",
		Long:   `Generate the authmatch(1) man page on standard output.`,
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			header := &doc.GenManHeader{
				Title:   "AUTHMATCH",
				Section: "1",
				Source:  "authmatch " + a.version,
				Manual:  "authmatch Manual",
			}
			return doc.GenMan(cmd.Root(), header, cmd.OutOrStdout())
		},
	}
}
