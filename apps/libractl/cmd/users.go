package cmd

import (
	"fmt"

	"github.com/quatton/libra/pkg/lsdk"
	"github.com/spf13/cobra"
)

func newUsersCmd() *cobra.Command {
	usersCmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "Manage accounts",
		Long: `Manage accounts. Listing, and acting on other users, needs a librarian
account; update and delete without an id act on yourself.`,
	}

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List users (librarian)",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := GetClient(cmd)
			if err != nil {
				return err
			}
			params := map[string]any{}
			for _, f := range []struct{ flag, param string }{
				{"email", "email"},
				{"username", "username"},
				{"first-name", "first_name"},
				{"last-name", "last_name"},
			} {
				if v, _ := cmd.Flags().GetString(f.flag); v != "" {
					params[f.param] = v
				}
			}
			items, err := runList(cmd, c.Users.List, params, func(u lsdk.User) []string {
				return []string{u.Username, u.Email, u.FirstName, u.LastName}
			})
			if err != nil {
				return err
			}
			return printList(cmd, items, userColumns)
		},
	}
	addListFlags(list)
	list.Flags().String("email", "", "Email contains")
	list.Flags().String("username", "", "Username contains")
	list.Flags().String("first-name", "", "First name contains")
	list.Flags().String("last-name", "", "Last name contains")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one user (yourself, or anyone as librarian)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := GetClient(cmd)
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			u, err := c.Users.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printItem(cmd, u, userColumns)
		},
	}

	update := &cobra.Command{
		Use:   "update [id]",
		Short: "Update your account, or another one as librarian",
		Long: `Applies the fields present in the document. Changing your own password
needs old_password in the same document.

Example:
  libractl users update -d '{"address": "1 Library Lane"}'
  libractl users update -d '{"password": "N3w!pass", "old_password": "0ld!pass"}'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := GetClient(cmd)
			if err != nil {
				return err
			}
			var in lsdk.UserUpdate
			if err := readDocument(cmd, &in); err != nil {
				return err
			}
			var u *lsdk.User
			if len(args) == 0 {
				u, err = c.Users.UpdateMe(cmd.Context(), &in)
			} else {
				id, perr := parseID(args[0])
				if perr != nil {
					return perr
				}
				u, err = c.Users.Update(cmd.Context(), id, &in)
			}
			if err != nil {
				return err
			}
			return printItem(cmd, u, userColumns)
		},
	}
	addDocumentFlags(update)

	del := &cobra.Command{
		Use:     "delete [id]",
		Aliases: []string{"rm"},
		Short:   "Delete your account, or another one as librarian",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := GetClient(cmd)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				if yes, _ := cmd.Flags().GetBool("yes"); !yes {
					return fmt.Errorf("refusing to delete your own account without --yes")
				}
				if err := c.Users.DeleteMe(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Account deleted; you are logged out")
				return nil
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.Users.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %d\n", id)
			return nil
		},
	}
	del.Flags().Bool("yes", false, "Confirm deleting your own account")

	registerLibrarian := &cobra.Command{
		Use:   "register-librarian",
		Short: "Create a librarian account (librarian)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := GetClient(cmd)
			if err != nil {
				return err
			}
			in, err := signupRequest(cmd)
			if err != nil {
				return err
			}
			u, err := c.Users.RegisterLibrarian(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printItem(cmd, u, userColumns)
		},
	}
	addSignupFlags(registerLibrarian)

	usersCmd.AddCommand(list, get, update, del, registerLibrarian)
	return usersCmd
}
