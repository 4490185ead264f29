package cli

import (
	"github.com/spf13/cobra"
)

func newAuthCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with Telegram (first-time setup)",
		Long: "Interactive login that creates the session file. The phone number is taken from TG_PHONE " +
			"or asked for; the login code and the 2FA password are read from the terminal.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.newApp()
			if err != nil {
				return err
			}
			res, err := a.Auth(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(c.out, res)
		},
	}
}

func newImportSessionCmd(c *cli) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "import-session <path>",
		Short: "Convert a Pyrogram or Telethon session into the reader's session",
		Long: "Reads the auth key from a Pyrogram or Telethon SQLite session and writes it to the session " +
			"selected by --session-file / TG_SESSION / config. No network access is needed.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.newApp()
			if err != nil {
				return err
			}
			res, err := a.ImportSession(cmd.Context(), args[0], force)
			if err != nil {
				return err
			}
			return writeJSON(c.out, res)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing target session")
	return cmd
}
