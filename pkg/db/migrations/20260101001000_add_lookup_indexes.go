package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Print(" [up migration] ")

		stmts := []string{
			"CREATE INDEX IF NOT EXISTS library_books_author_ids_idx ON library.books USING GIN (author_ids)",
			"CREATE INDEX IF NOT EXISTS library_books_genre_ids_idx ON library.books USING GIN (genre_ids)",
			"CREATE INDEX IF NOT EXISTS library_copies_book_id_idx ON library.copies (book_id)",
			"CREATE INDEX IF NOT EXISTS library_borrowed_user_id_idx ON library.borrowed (user_id)",
		}

		for _, stmt := range stmts {
			if _, err := db.NewRaw(stmt).Exec(ctx); err != nil {
				return err
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Print(" [down migration] ")

		stmts := []string{
			"DROP INDEX IF EXISTS library.library_borrowed_user_id_idx",
			"DROP INDEX IF EXISTS library.library_copies_book_id_idx",
			"DROP INDEX IF EXISTS library.library_books_genre_ids_idx",
			"DROP INDEX IF EXISTS library.library_books_author_ids_idx",
		}

		for _, stmt := range stmts {
			if _, err := db.NewRaw(stmt).Exec(ctx); err != nil {
				return err
			}
		}

		return nil
	})
}
