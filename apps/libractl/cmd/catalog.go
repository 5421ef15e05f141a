package cmd

import (
	"context"

	"github.com/quatton/libra/pkg/lsdk"
	"github.com/spf13/cobra"
)

func named[T any](use, entity string, res func(*lsdk.Client) *lsdk.Resource[T], nameOf func(T) string, idOf func(T) int64) resourceCmd[T] {
	return resourceCmd[T]{
		use:     use,
		aliases: []string{entity},
		entity:  entity,
		short:   "Manage " + use,
		columns: []column[T]{
			{"ID", func(v T) string { return fmtID(idOf(v)) }},
			{"NAME", nameOf},
		},
		resource: res,
		search:   func(v T) []string { return []string{nameOf(v)} },
	}
}

func newCatalogCmds() []*cobra.Command {
	authors := resourceCmd[lsdk.Author]{
		use:     "authors",
		aliases: []string{"author"},
		entity:  "author",
		short:   "Manage authors",
		columns: []column[lsdk.Author]{
			{"ID", func(a lsdk.Author) string { return fmtID(a.ID) }},
			{"FIRST NAME", func(a lsdk.Author) string { return a.FirstName }},
			{"LAST NAME", func(a lsdk.Author) string { return a.LastName }},
			{"BORN", func(a lsdk.Author) string { return a.BirthDate }},
			{"DIED", func(a lsdk.Author) string { return optional(a.DeathDate) }},
		},
		resource: func(c *lsdk.Client) *lsdk.Resource[lsdk.Author] { return c.Authors },
		search:   func(a lsdk.Author) []string { return []string{a.FirstName, a.LastName} },
	}

	books := resourceCmd[lsdk.Book]{
		use:     "books",
		aliases: []string{"book"},
		entity:  "book",
		short:   "Manage books",
		columns: []column[lsdk.Book]{
			{"ID", func(b lsdk.Book) string { return fmtID(b.ID) }},
			{"TITLE", func(b lsdk.Book) string { return b.Title }},
			{"ISBN", func(b lsdk.Book) string { return b.ISBN }},
			{"PUBLISHED", func(b lsdk.Book) string { return b.DateOfPublication }},
			{"LANGUAGE", func(b lsdk.Book) string { return fmtID(b.LanguageID) }},
			{"AUTHORS", func(b lsdk.Book) string { return fmtIDs(b.AuthorIDs) }},
			{"GENRES", func(b lsdk.Book) string { return fmtIDs(b.GenreIDs) }},
		},
		resource: func(c *lsdk.Client) *lsdk.Resource[lsdk.Book] { return c.Books.Resource },
		search:   func(b lsdk.Book) []string { return []string{b.Title, b.ISBN, b.Description} },
		listFlags: func(cmd *cobra.Command) {
			cmd.Flags().Int64Slice("author", nil, "Only books by any of these author ids")
			cmd.Flags().Int64Slice("genre", nil, "Only books in any of these genre ids")
			cmd.Flags().Int64Slice("language", nil, "Only books in any of these language ids")
		},
		listParams: func(cmd *cobra.Command) map[string]any {
			var f lsdk.BookFilter
			f.Authors, _ = cmd.Flags().GetInt64Slice("author")
			f.Genres, _ = cmd.Flags().GetInt64Slice("genre")
			f.Languages, _ = cmd.Flags().GetInt64Slice("language")
			return f.Apply(nil).Params
		},
	}

	copyColumns := []column[lsdk.Copy]{
		{"ID", func(c lsdk.Copy) string { return fmtID(c.ID) }},
		{"BOOK", func(c lsdk.Copy) string { return fmtID(c.BookID) }},
		{"LANGUAGE", func(c lsdk.Copy) string { return fmtID(c.LanguageID) }},
		{"STATUS", func(c lsdk.Copy) string { return c.Status }},
	}
	copies := resourceCmd[lsdk.Copy]{
		use:      "copies",
		aliases:  []string{"copy"},
		entity:   "copy",
		short:    "Manage physical copies of books",
		columns:  copyColumns,
		resource: func(c *lsdk.Client) *lsdk.Resource[lsdk.Copy] { return c.Copies.Resource },
		search:   func(c lsdk.Copy) []string { return []string{c.Status} },
	}
	copiesCmd := copies.command()

	ofBook := &cobra.Command{
		Use:   "of-book <book_id>",
		Short: "List the copies of one book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := GetClient(cmd)
			if err != nil {
				return err
			}
			bookID, err := parseID(args[0])
			if err != nil {
				return err
			}
			list := func(ctx context.Context, opts *lsdk.ListOptions) ([]lsdk.Copy, error) {
				return c.Copies.ListByBook(ctx, bookID, opts)
			}
			items, err := runList(cmd, list, nil, copies.search)
			if err != nil {
				return err
			}
			return printList(cmd, items, copyColumns)
		},
	}
	addListFlags(ofBook)
	copiesCmd.AddCommand(ofBook)

	genres := named("genres", "genre",
		func(c *lsdk.Client) *lsdk.Resource[lsdk.Genre] { return c.Genres },
		func(g lsdk.Genre) string { return g.Name },
		func(g lsdk.Genre) int64 { return g.ID })
	languages := named("languages", "language",
		func(c *lsdk.Client) *lsdk.Resource[lsdk.Language] { return c.Languages },
		func(l lsdk.Language) string { return l.Name },
		func(l lsdk.Language) int64 { return l.ID })
	statuses := named("statuses", "status",
		func(c *lsdk.Client) *lsdk.Resource[lsdk.Status] { return c.Statuses },
		func(s lsdk.Status) string { return s.Name },
		func(s lsdk.Status) int64 { return s.ID })

	return []*cobra.Command{
		authors.command(),
		books.command(),
		copiesCmd,
		genres.command(),
		languages.command(),
		statuses.command(),
	}
}
