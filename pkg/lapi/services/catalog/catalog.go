package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/quatton/libra/pkg/db"
	"github.com/quatton/libra/pkg/db/models"
	"github.com/quatton/libra/pkg/lapi/apierr"
)

type Catalog struct {
	Authors   *Service[models.Author, *models.Author]
	Books     *Service[models.Book, *models.Book]
	Copies    *Service[models.Copy, *models.Copy]
	Genres    *Service[models.Genre, *models.Genre]
	Languages *Service[models.Language, *models.Language]
	Statuses  *Service[models.Status, *models.Status]

	now func() time.Time
}

func New(repos *db.Repos) *Catalog {
	c := &Catalog{now: time.Now}
	c.Genres = NewService[models.Genre]("genre", repos.Genres, func(_ context.Context, m *models.Genre) error {
		return requireName(&m.Name)
	})
	c.Languages = NewService[models.Language]("language", repos.Languages, func(_ context.Context, m *models.Language) error {
		return requireName(&m.Name)
	})
	c.Statuses = NewService[models.Status]("status", repos.Statuses, func(_ context.Context, m *models.Status) error {
		return requireName(&m.Name)
	})
	c.Authors = NewService[models.Author]("author", repos.Authors, c.validateAuthor)
	c.Books = NewService[models.Book]("book", repos.Books, c.validateBook)
	c.Copies = NewService[models.Copy]("copy", repos.Copies, c.validateCopy)
	return c
}

func requireName(name *string) error {
	*name = strings.TrimSpace(*name)
	if *name == "" {
		return apierr.Invalid("name", "must not be blank")
	}
	return nil
}

func (c *Catalog) validateAuthor(_ context.Context, m *models.Author) error {
	if strings.TrimSpace(m.FirstName) == "" || strings.TrimSpace(m.LastName) == "" {
		return apierr.Invalid("first_name", "first and last name must not be blank")
	}
	born, err := ParseDate("birth_date", m.BirthDate)
	if err != nil {
		return err
	}
	if m.DeathDate == nil || *m.DeathDate == "" {
		m.DeathDate = nil
		return nil
	}
	died, err := ParseDate("death_date", *m.DeathDate)
	if err != nil {
		return err
	}
	if !died.After(born) {
		return apierr.Invalid("death_date", "must be after birth_date")
	}
	return nil
}

func (c *Catalog) validateBook(ctx context.Context, m *models.Book) error {
	if m.Title == "" {
		return apierr.Invalid("title", "must not be blank")
	}
	published, err := ParseDate("date_of_publication", m.DateOfPublication)
	if err != nil {
		return err
	}
	if published.After(c.now().UTC()) {
		return apierr.Invalid("date_of_publication", "cannot be in the future")
	}

	if ok, err := c.Languages.Exists(ctx, m.LanguageID); err != nil {
		return err
	} else if !ok {
		return apierr.Invalid("language_id", "language %d does not exist", m.LanguageID)
	}

	m.AuthorIDs = dedupe(m.AuthorIDs)
	for _, id := range m.AuthorIDs {
		if ok, err := c.Authors.Exists(ctx, id); err != nil {
			return err
		} else if !ok {
			return apierr.Invalid("author_ids", "author %d does not exist", id)
		}
	}
	m.GenreIDs = dedupe(m.GenreIDs)
	for _, id := range m.GenreIDs {
		if ok, err := c.Genres.Exists(ctx, id); err != nil {
			return err
		} else if !ok {
			return apierr.Invalid("genre_ids", "genre %d does not exist", id)
		}
	}
	return nil
}

func (c *Catalog) validateCopy(ctx context.Context, m *models.Copy) error {
	switch m.Status {
	case "":
		m.Status = models.CopyAvailable
	case models.CopyAvailable, models.CopyBorrowed:
	default:
		return apierr.Invalid("status", "must be %q or %q", models.CopyAvailable, models.CopyBorrowed)
	}

	if ok, err := c.Books.Exists(ctx, m.BookID); err != nil {
		return err
	} else if !ok {
		return apierr.Invalid("book_id", "book %d does not exist", m.BookID)
	}
	if ok, err := c.Languages.Exists(ctx, m.LanguageID); err != nil {
		return err
	} else if !ok {
		return apierr.Invalid("language_id", "language %d does not exist", m.LanguageID)
	}
	return nil
}

// BookFilter builds the listing filter for GET /api/book/.
func BookFilter(authors, genres, languages []int64, title string) db.Filter {
	var f db.Filter
	f.SetOverlaps("author_ids", authors).
		SetOverlaps("genre_ids", genres).
		SetIn("language_id", languages).
		SetLike("title", title)
	return f
}

// CopiesOf lists the copies of one book.
func (c *Catalog) CopiesOf(ctx context.Context, bookID int64, page db.Page) ([]models.Copy, error) {
	if _, err := c.Books.Get(ctx, bookID); err != nil {
		return nil, err
	}
	var f db.Filter
	return c.Copies.List(ctx, page, *f.SetEq("book_id", bookID))
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
