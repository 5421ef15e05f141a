package cmd

import (
	"context"
	"strconv"

	"github.com/quatton/libra/pkg/lsdk"
	"github.com/spf13/cobra"
)

func newBorrowedCmd() *cobra.Command {
	loans := resourceCmd[lsdk.Borrowed]{
		use:      "borrowed",
		aliases:  []string{"loans"},
		entity:   "borrowed record",
		short:    "Lend, return and inspect loans",
		columns:  borrowedColumns,
		resource: func(c *lsdk.Client) *lsdk.Resource[lsdk.Borrowed] { return c.Borrowed.Resource },
		search: func(b lsdk.Borrowed) []string {
			return []string{strconv.FormatInt(b.CopyID, 10), strconv.FormatInt(b.UserID, 10), b.IssueDate, b.DueDate}
		},
	}
	group := loans.command()

	mine := &cobra.Command{
		Use:   "mine",
		Short: "List your own loans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := GetClient(cmd)
			if err != nil {
				return err
			}
			items, err := runList(cmd, c.Borrowed.Mine, nil, loans.search)
			if err != nil {
				return err
			}
			return printList(cmd, items, borrowedColumns)
		},
	}
	addListFlags(mine)

	user := &cobra.Command{
		Use:   "user <user_id>",
		Short: "List one user's loans (librarian)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := GetClient(cmd)
			if err != nil {
				return err
			}
			userID, err := parseID(args[0])
			if err != nil {
				return err
			}
			list := func(ctx context.Context, opts *lsdk.ListOptions) ([]lsdk.Borrowed, error) {
				return c.Borrowed.ForUser(ctx, userID, opts)
			}
			items, err := runList(cmd, list, nil, loans.search)
			if err != nil {
				return err
			}
			return printList(cmd, items, borrowedColumns)
		},
	}
	addListFlags(user)

	ret := &cobra.Command{
		Use:   "return <id>",
		Short: "Return a loan today",
		Long: `Closes one of your own loans. Librarians pass --any to close anyone's
loan.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := GetClient(cmd)
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			returnFn := c.Borrowed.Return
			if anyUser, _ := cmd.Flags().GetBool("any"); anyUser {
				returnFn = c.Borrowed.ReturnAny
			}
			b, err := returnFn(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printItem(cmd, b, borrowedColumns)
		},
	}
	ret.Flags().Bool("any", false, "Return another user's loan (librarian)")

	group.AddCommand(mine, user, ret)
	return group
}
