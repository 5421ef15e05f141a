package lsdk

// Author is a catalog author. Dates are YYYY-MM-DD.
type Author struct {
	ID        int64   `json:"id,omitempty" yaml:"id,omitempty"`
	FirstName string  `json:"first_name" yaml:"first_name"`
	LastName  string  `json:"last_name" yaml:"last_name"`
	BirthDate string  `json:"birth_date" yaml:"birth_date"`
	DeathDate *string `json:"death_date,omitempty" yaml:"death_date,omitempty"`
}

type Book struct {
	ID                int64   `json:"id,omitempty" yaml:"id,omitempty"`
	Title             string  `json:"title" yaml:"title"`
	ISBN              string  `json:"isbn" yaml:"isbn"`
	Description       string  `json:"description" yaml:"description"`
	DateOfPublication string  `json:"date_of_publication" yaml:"date_of_publication"`
	LanguageID        int64   `json:"language_id" yaml:"language_id"`
	AuthorIDs         []int64 `json:"author_ids" yaml:"author_ids"`
	GenreIDs          []int64 `json:"genre_ids" yaml:"genre_ids"`
}

// Copy is a physical copy of a book. Status is "available" or "borrowed".
type Copy struct {
	ID         int64  `json:"id,omitempty" yaml:"id,omitempty"`
	BookID     int64  `json:"book_id" yaml:"book_id"`
	LanguageID int64  `json:"language_id" yaml:"language_id"`
	Status     string `json:"status,omitempty" yaml:"status,omitempty"`
}

type Genre struct {
	ID   int64  `json:"id,omitempty" yaml:"id,omitempty"`
	Name string `json:"name" yaml:"name"`
}

type Language struct {
	ID   int64  `json:"id,omitempty" yaml:"id,omitempty"`
	Name string `json:"name" yaml:"name"`
}

type Status struct {
	ID   int64  `json:"id,omitempty" yaml:"id,omitempty"`
	Name string `json:"name" yaml:"name"`
}

// User is the public view of an account. The password is never returned.
type User struct {
	ID            int64  `json:"id,omitempty" yaml:"id,omitempty"`
	Email         string `json:"email" yaml:"email"`
	Username      string `json:"username" yaml:"username"`
	FirstName     string `json:"first_name" yaml:"first_name"`
	LastName      string `json:"last_name" yaml:"last_name"`
	ContactNumber string `json:"contact_number" yaml:"contact_number"`
	Address       string `json:"address" yaml:"address"`
	DateOfJoining string `json:"date_of_joining,omitempty" yaml:"date_of_joining,omitempty"`
	IsLibrarian   bool   `json:"is_librarian" yaml:"is_librarian"`
	IsActive      bool   `json:"is_active" yaml:"is_active"`
}

// UserProfile is the user record cached alongside the session.
type UserProfile = User

// UserUpdate carries the mutable account fields. Empty fields are left as is.
type UserUpdate struct {
	Email         string `json:"email,omitempty" yaml:"email,omitempty"`
	FirstName     string `json:"first_name,omitempty" yaml:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty" yaml:"last_name,omitempty"`
	ContactNumber string `json:"contact_number,omitempty" yaml:"contact_number,omitempty"`
	Address       string `json:"address,omitempty" yaml:"address,omitempty"`
	Password      string `json:"password,omitempty" yaml:"password,omitempty"`
	OldPassword   string `json:"old_password,omitempty" yaml:"old_password,omitempty"`
}

type Borrowed struct {
	ID         int64   `json:"id,omitempty" yaml:"id,omitempty"`
	CopyID     int64   `json:"copy_id" yaml:"copy_id"`
	UserID     int64   `json:"user_id" yaml:"user_id"`
	IssueDate  string  `json:"issue_date" yaml:"issue_date"`
	DueDate    string  `json:"due_date" yaml:"due_date"`
	ReturnDate *string `json:"return_date,omitempty" yaml:"return_date,omitempty"`
}

// Credentials are submitted to the password grant.
type Credentials struct {
	Username string
	Password string
}

// SignupRequest registers a new account.
type SignupRequest struct {
	Email         string `json:"email" yaml:"email"`
	Username      string `json:"username" yaml:"username"`
	Password      string `json:"password" yaml:"password"`
	FirstName     string `json:"first_name" yaml:"first_name"`
	LastName      string `json:"last_name" yaml:"last_name"`
	ContactNumber string `json:"contact_number" yaml:"contact_number"`
	Address       string `json:"address" yaml:"address"`
}

// SessionPair is what the server hands out on login and signup.
type SessionPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	User         *User  `json:"user,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
}
