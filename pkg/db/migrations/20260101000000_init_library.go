package migrations

import (
	"context"
	"fmt"

	"github.com/quatton/libra/pkg/db/models"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Print(" [up migration] ")

		if _, err := db.NewRaw("CREATE SCHEMA IF NOT EXISTS library").Exec(ctx); err != nil {
			return err
		}

		tables := []struct {
			model any
			fks   []string
		}{
			{model: (*models.Language)(nil)},
			{model: (*models.Genre)(nil)},
			{model: (*models.Status)(nil)},
			{model: (*models.Author)(nil)},
			{model: (*models.User)(nil)},
			{
				model: (*models.Book)(nil),
				fks:   []string{`("language_id") REFERENCES library.languages ("id")`},
			},
			{
				model: (*models.Copy)(nil),
				fks: []string{
					`("book_id") REFERENCES library.books ("id")`,
					`("language_id") REFERENCES library.languages ("id")`,
				},
			},
			{
				model: (*models.Borrowed)(nil),
				fks: []string{
					`("copy_id") REFERENCES library.copies ("id")`,
					`("user_id") REFERENCES library.users ("id")`,
				},
			},
		}

		for _, t := range tables {
			q := db.NewCreateTable().Model(t.model).IfNotExists()
			for _, fk := range t.fks {
				q = q.ForeignKey(fk)
			}
			if _, err := q.Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Print(" [down migration] ")

		for _, model := range []any{
			(*models.Borrowed)(nil),
			(*models.Copy)(nil),
			(*models.Book)(nil),
			(*models.User)(nil),
			(*models.Author)(nil),
			(*models.Status)(nil),
			(*models.Genre)(nil),
			(*models.Language)(nil),
		} {
			if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
				return err
			}
		}

		_, err := db.NewRaw("DROP SCHEMA IF EXISTS library").Exec(ctx)
		return err
	})
}
