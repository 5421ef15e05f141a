package cmd

import (
	"github.com/spf13/cobra"
)

func newMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show information about the current authenticated user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := GetClient(cmd)
			if err != nil {
				return err
			}
			u, err := c.Users.Me(cmd.Context())
			if err != nil {
				return err
			}
			return printItem(cmd, u, userColumns)
		},
	}
}
