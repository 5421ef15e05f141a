package db

import (
	"github.com/quatton/libra/pkg/db/models"
	"github.com/uptrace/bun"
)

// Repos bundles one repository per table.
type Repos struct {
	Authors   Repository[models.Author]
	Books     Repository[models.Book]
	Copies    Repository[models.Copy]
	Genres    Repository[models.Genre]
	Languages Repository[models.Language]
	Statuses  Repository[models.Status]
	Users     Repository[models.User]
	Borrowed  Repository[models.Borrowed]
}

func NewBunRepos(db bun.IDB) *Repos {
	return &Repos{
		Authors:   NewBunRepository[models.Author](db),
		Books:     NewBunRepository[models.Book](db),
		Copies:    NewBunRepository[models.Copy](db),
		Genres:    NewBunRepository[models.Genre](db),
		Languages: NewBunRepository[models.Language](db),
		Statuses:  NewBunRepository[models.Status](db),
		Users:     NewBunRepository[models.User](db),
		Borrowed:  NewBunRepository[models.Borrowed](db),
	}
}

// NewMemoryRepos mirrors the unique constraints of the postgres schema.
func NewMemoryRepos() *Repos {
	return &Repos{
		Authors:   NewMemoryRepository[models.Author](),
		Books:     NewMemoryRepository[models.Book]("isbn"),
		Copies:    NewMemoryRepository[models.Copy](),
		Genres:    NewMemoryRepository[models.Genre]("name"),
		Languages: NewMemoryRepository[models.Language]("name"),
		Statuses:  NewMemoryRepository[models.Status]("name"),
		Users:     NewMemoryRepository[models.User]("email", "username"),
		Borrowed:  NewMemoryRepository[models.Borrowed](),
	}
}
