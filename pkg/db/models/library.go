package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Copy states.
const (
	CopyAvailable = "available"
	CopyBorrowed  = "borrowed"
)

// Base carries the primary key and the soft-delete marker shared by every
// table. Soft-deleted rows are invisible to normal queries.
type Base struct {
	ID        int64     `bun:",pk,autoincrement" json:"id"`
	DeletedAt time.Time `bun:",soft_delete,nullzero" json:"-"`
}

func (b *Base) PK() int64      { return b.ID }
func (b *Base) SetPK(id int64) { b.ID = id }

type Author struct {
	bun.BaseModel `bun:"table:library.authors,alias:a"`
	Base

	FirstName string  `bun:",notnull" json:"first_name"`
	LastName  string  `bun:",notnull" json:"last_name"`
	BirthDate string  `bun:"type:date,notnull" json:"birth_date"`
	DeathDate *string `bun:"type:date,nullzero" json:"death_date,omitempty"`
}

type Book struct {
	bun.BaseModel `bun:"table:library.books,alias:b"`
	Base

	Title             string  `bun:",notnull" json:"title"`
	ISBN              string  `bun:"isbn,unique,notnull" json:"isbn"`
	Description       string  `bun:",notnull,default:''" json:"description"`
	DateOfPublication string  `bun:"type:date,notnull" json:"date_of_publication"`
	LanguageID        int64   `bun:",notnull" json:"language_id"`
	AuthorIDs         []int64 `bun:"author_ids,array" json:"author_ids"`
	GenreIDs          []int64 `bun:"genre_ids,array" json:"genre_ids"`
}

type Copy struct {
	bun.BaseModel `bun:"table:library.copies,alias:c"`
	Base

	BookID     int64  `bun:",notnull" json:"book_id"`
	LanguageID int64  `bun:",notnull" json:"language_id"`
	Status     string `bun:",notnull,default:'available'" json:"status"`
}

type Genre struct {
	bun.BaseModel `bun:"table:library.genres,alias:g"`
	Base

	Name string `bun:",unique,notnull" json:"name"`
}

type Language struct {
	bun.BaseModel `bun:"table:library.languages,alias:l"`
	Base

	Name string `bun:",unique,notnull" json:"name"`
}

type Status struct {
	bun.BaseModel `bun:"table:library.statuses,alias:s"`
	Base

	Name string `bun:",unique,notnull" json:"name"`
}

type User struct {
	bun.BaseModel `bun:"table:library.users,alias:u"`
	Base

	Email         string `bun:",unique,notnull" json:"email"`
	Username      string `bun:",unique,notnull" json:"username"`
	PasswordHash  string `bun:",notnull" json:"-"`
	FirstName     string `bun:",notnull,default:''" json:"first_name"`
	LastName      string `bun:",notnull,default:''" json:"last_name"`
	ContactNumber string `bun:",notnull,default:''" json:"contact_number"`
	Address       string `bun:",notnull,default:''" json:"address"`
	DateOfJoining string `bun:"type:date,nullzero,notnull,default:current_date" json:"date_of_joining"`
	IsLibrarian   bool   `bun:",notnull,default:false" json:"is_librarian"`
	IsActive      bool   `bun:",notnull,default:true" json:"is_active"`
}

type Borrowed struct {
	bun.BaseModel `bun:"table:library.borrowed,alias:br"`
	Base

	CopyID     int64   `bun:",notnull" json:"copy_id"`
	UserID     int64   `bun:",notnull" json:"user_id"`
	IssueDate  string  `bun:"type:date,notnull" json:"issue_date"`
	DueDate    string  `bun:"type:date,notnull" json:"due_date"`
	ReturnDate *string `bun:"type:date,nullzero" json:"return_date,omitempty"`
}
