package schemas

import (
	"strings"

	"github.com/quatton/libra/pkg/db/models"
)

// DateOnly trims a timestamp rendering of a date column to YYYY-MM-DD.
func DateOnly(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}

func dateOnlyPtr(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	d := DateOnly(*s)
	return &d
}

type Author struct {
	ID        int64   `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	BirthDate string  `json:"birth_date" format:"date"`
	DeathDate *string `json:"death_date,omitempty" format:"date"`
}

func NewAuthor(m *models.Author) Author {
	return Author{
		ID:        m.ID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		BirthDate: DateOnly(m.BirthDate),
		DeathDate: dateOnlyPtr(m.DeathDate),
	}
}

type AuthorInput struct {
	_ struct{} `json:"-" additionalProperties:"true"`

	FirstName string  `json:"first_name" minLength:"1" maxLength:"64"`
	LastName  string  `json:"last_name" minLength:"1" maxLength:"64"`
	BirthDate string  `json:"birth_date" format:"date"`
	DeathDate *string `json:"death_date,omitempty" format:"date"`
}

func (in AuthorInput) Model() *models.Author {
	return &models.Author{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		BirthDate: in.BirthDate,
		DeathDate: in.DeathDate,
	}
}

type Book struct {
	ID                int64   `json:"id"`
	Title             string  `json:"title"`
	ISBN              string  `json:"isbn"`
	Description       string  `json:"description"`
	DateOfPublication string  `json:"date_of_publication" format:"date"`
	LanguageID        int64   `json:"language_id"`
	AuthorIDs         []int64 `json:"author_ids"`
	GenreIDs          []int64 `json:"genre_ids"`
}

func NewBook(m *models.Book) Book {
	b := Book{
		ID:                m.ID,
		Title:             m.Title,
		ISBN:              m.ISBN,
		Description:       m.Description,
		DateOfPublication: DateOnly(m.DateOfPublication),
		LanguageID:        m.LanguageID,
		AuthorIDs:         m.AuthorIDs,
		GenreIDs:          m.GenreIDs,
	}
	if b.AuthorIDs == nil {
		b.AuthorIDs = []int64{}
	}
	if b.GenreIDs == nil {
		b.GenreIDs = []int64{}
	}
	return b
}

type BookInput struct {
	_ struct{} `json:"-" additionalProperties:"true"`

	Title             string  `json:"title" minLength:"1" maxLength:"256"`
	ISBN              string  `json:"isbn" minLength:"10" maxLength:"13"`
	Description       string  `json:"description,omitempty" maxLength:"200"`
	DateOfPublication string  `json:"date_of_publication" format:"date"`
	LanguageID        int64   `json:"language_id" minimum:"1"`
	AuthorIDs         []int64 `json:"author_ids" minItems:"1"`
	GenreIDs          []int64 `json:"genre_ids" minItems:"1"`
}

func (in BookInput) Model() *models.Book {
	return &models.Book{
		Title:             strings.TrimSpace(in.Title),
		ISBN:              strings.TrimSpace(in.ISBN),
		Description:       in.Description,
		DateOfPublication: in.DateOfPublication,
		LanguageID:        in.LanguageID,
		AuthorIDs:         in.AuthorIDs,
		GenreIDs:          in.GenreIDs,
	}
}

type BookListRequest struct {
	PageParams
	Author   []int64 `query:"author,explode" doc:"Books by any of these author ids"`
	Genre    []int64 `query:"genre,explode" doc:"Books in any of these genre ids"`
	Language []int64 `query:"language,explode" doc:"Books in any of these language ids"`
	Title    string  `query:"title" doc:"Case-insensitive substring match"`
}

type Copy struct {
	ID         int64  `json:"id"`
	BookID     int64  `json:"book_id"`
	LanguageID int64  `json:"language_id"`
	Status     string `json:"status" enum:"available,borrowed"`
}

func NewCopy(m *models.Copy) Copy {
	return Copy{ID: m.ID, BookID: m.BookID, LanguageID: m.LanguageID, Status: m.Status}
}

type CopyInput struct {
	_ struct{} `json:"-" additionalProperties:"true"`

	BookID     int64  `json:"book_id" minimum:"1"`
	LanguageID int64  `json:"language_id" minimum:"1"`
	Status     string `json:"status,omitempty" enum:"available,borrowed" doc:"Defaults to available"`
}

func (in CopyInput) Model() *models.Copy {
	return &models.Copy{BookID: in.BookID, LanguageID: in.LanguageID, Status: in.Status}
}

type CopiesByBookRequest struct {
	PageParams
	BookID int64 `path:"book_id" minimum:"1"`
}

// Named is the shape of the genre, language and status lookup tables.
type Named struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func NewGenre(m *models.Genre) Named       { return Named{ID: m.ID, Name: m.Name} }
func NewLanguage(m *models.Language) Named { return Named{ID: m.ID, Name: m.Name} }
func NewStatus(m *models.Status) Named     { return Named{ID: m.ID, Name: m.Name} }

type GenreInput struct {
	_    struct{} `json:"-" additionalProperties:"true"`
	Name string   `json:"name" minLength:"1" maxLength:"64"`
}

func (in GenreInput) Model() *models.Genre {
	return &models.Genre{Name: strings.TrimSpace(in.Name)}
}

type LanguageInput struct {
	_    struct{} `json:"-" additionalProperties:"true"`
	Name string   `json:"name" minLength:"1" maxLength:"64"`
}

func (in LanguageInput) Model() *models.Language {
	return &models.Language{Name: strings.TrimSpace(in.Name)}
}

type StatusInput struct {
	_    struct{} `json:"-" additionalProperties:"true"`
	Name string   `json:"name" minLength:"1" maxLength:"64"`
}

func (in StatusInput) Model() *models.Status {
	return &models.Status{Name: strings.TrimSpace(in.Name)}
}

type ListRequest struct {
	PageParams
}
