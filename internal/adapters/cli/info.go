package cli

import (
	"github.com/spf13/cobra"
)

func newInfoCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "info <channel>",
		Short: "Get channel title, description and subscriber count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.newApp()
			if err != nil {
				return err
			}
			info, fail, err := a.Info(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			// Ошибка канала — это данные для агента, а не сбой команды.
			if fail != nil {
				return writeJSON(c.out, fail)
			}
			return writeJSON(c.out, info)
		},
	}
}
