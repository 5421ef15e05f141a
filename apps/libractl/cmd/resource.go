package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/quatton/libra/pkg/lsdk"
	"github.com/spf13/cobra"
)

// resourceCmd describes a CRUD command group over one SDK resource.
type resourceCmd[T any] struct {
	use     string
	aliases []string
	entity  string
	short   string
	columns []column[T]

	resource func(*lsdk.Client) *lsdk.Resource[T]
	// search returns the fields --search matches against.
	search func(T) []string

	// listFlags and listParams add server-side filters to list.
	listFlags  func(*cobra.Command)
	listParams func(*cobra.Command) map[string]any
}

func parseID(arg string) (int64, error) {
	v, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return v, nil
}

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().Int("page", 1, "Page number")
	cmd.Flags().Int("page-size", 0, "Items per page (default from config)")
	cmd.Flags().Bool("all", false, "Fetch every page")
	cmd.Flags().String("search", "", "Keep only items containing this text (case-insensitive)")
}

// runList pages through list per the standard list flags.
func runList[T any](cmd *cobra.Command, list func(context.Context, *lsdk.ListOptions) ([]T, error), params map[string]any, fields func(T) []string) ([]T, error) {
	page, _ := cmd.Flags().GetInt("page")
	pageSize, _ := cmd.Flags().GetInt("page-size")
	all, _ := cmd.Flags().GetBool("all")
	query, _ := cmd.Flags().GetString("search")

	if pageSize <= 0 {
		if cfg, err := GetConfig(cmd); err == nil {
			pageSize = cfg.PageSize
		}
	}

	var (
		items []T
		err   error
	)
	if all {
		items, err = lsdk.ListAll(cmd.Context(), pageSize, list, params)
	} else {
		items, err = list(cmd.Context(), &lsdk.ListOptions{Page: page, PageSize: pageSize, Params: params})
	}
	if err != nil {
		return nil, err
	}
	if fields != nil {
		items = lsdk.Search(items, query, fields)
	}
	return items, nil
}

func (r resourceCmd[T]) command() *cobra.Command {
	group := &cobra.Command{
		Use:     r.use,
		Aliases: r.aliases,
		Short:   r.short,
	}
	group.AddCommand(r.listCmd(), r.getCmd(), r.createCmd(), r.updateCmd(), r.deleteCmd())
	return group
}

func (r resourceCmd[T]) listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List " + r.use,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := GetClient(cmd)
			if err != nil {
				return err
			}
			var params map[string]any
			if r.listParams != nil {
				params = r.listParams(cmd)
			}
			items, err := runList(cmd, r.resource(c).List, params, r.search)
			if err != nil {
				return err
			}
			return printList(cmd, items, r.columns)
		},
	}
	addListFlags(cmd)
	if r.listFlags != nil {
		r.listFlags(cmd)
	}
	return cmd
}

func (r resourceCmd[T]) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one " + r.entity,
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
			item, err := r.resource(c).Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printItem(cmd, item, r.columns)
		},
	}
}

func (r resourceCmd[T]) createCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a " + r.entity + " (librarian)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := GetClient(cmd)
			if err != nil {
				return err
			}
			var in T
			if err := readDocument(cmd, &in); err != nil {
				return err
			}
			item, err := r.resource(c).Create(cmd.Context(), &in)
			if err != nil {
				return err
			}
			return printItem(cmd, item, r.columns)
		},
	}
	addDocumentFlags(cmd)
	return cmd
}

func (r resourceCmd[T]) updateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a " + r.entity + " (librarian)",
		Long: `Fetches the current record, applies the fields present in the document
and writes the result back.`,
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
			cur, err := r.resource(c).Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if err := readDocument(cmd, cur); err != nil {
				return err
			}
			item, err := r.resource(c).Update(cmd.Context(), id, cur)
			if err != nil {
				return err
			}
			return printItem(cmd, item, r.columns)
		},
	}
	addDocumentFlags(cmd)
	return cmd
}

func (r resourceCmd[T]) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a " + r.entity + " (librarian)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := GetClient(cmd)
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := r.resource(c).Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %d\n", r.entity, id)
			return nil
		},
	}
}
