package cli

import (
	"github.com/spf13/cobra"

	"tg-channel-reader/internal/app"
	"tg-channel-reader/internal/infra/telegram/session"
)

func newCheckCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Diagnose credentials, session and backends without network access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dirs := c.sessionDirs
			if dirs == nil {
				dirs = session.DefaultDirs()
			}
			rep := app.Check(cmd.Context(), c.loadOptions(), dirs...)
			if err := writeJSON(c.out, rep); err != nil {
				return err
			}
			if !rep.OK() {
				return &exitError{code: 1}
			}
			return nil
		},
	}
}
