package routes

var (
	BearerAuth = []map[string][]string{
		{"bearer": {}},
	}
)

type Tag string

const (
	TagHealth    Tag = "health"
	TagAuth      Tag = "auth"
	TagUsers     Tag = "users"
	TagAuthors   Tag = "authors"
	TagBooks     Tag = "books"
	TagCopies    Tag = "copies"
	TagGenres    Tag = "genres"
	TagLanguages Tag = "languages"
	TagStatuses  Tag = "statuses"
	TagBorrowed  Tag = "borrowed"
)

func (t Tag) String() string { return string(t) }

func AllTags() []string {
	return []string{
		TagHealth.String(),
		TagAuth.String(),
		TagUsers.String(),
		TagAuthors.String(),
		TagBooks.String(),
		TagCopies.String(),
		TagGenres.String(),
		TagLanguages.String(),
		TagStatuses.String(),
		TagBorrowed.String(),
	}
}
