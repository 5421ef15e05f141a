package schemas

import "github.com/quatton/libra/pkg/db/models"

// User is the public view of an account.
type User struct {
	ID            int64  `json:"id"`
	Email         string `json:"email"`
	Username      string `json:"username"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	ContactNumber string `json:"contact_number"`
	Address       string `json:"address"`
	DateOfJoining string `json:"date_of_joining" format:"date"`
	IsLibrarian   bool   `json:"is_librarian"`
	IsActive      bool   `json:"is_active"`
}

func NewUser(m *models.User) User {
	return User{
		ID:            m.ID,
		Email:         m.Email,
		Username:      m.Username,
		FirstName:     m.FirstName,
		LastName:      m.LastName,
		ContactNumber: m.ContactNumber,
		Address:       m.Address,
		DateOfJoining: DateOnly(m.DateOfJoining),
		IsLibrarian:   m.IsLibrarian,
		IsActive:      m.IsActive,
	}
}

// UserUpdateBody changes only the fields that are present.
type UserUpdateBody struct {
	_ struct{} `json:"-" additionalProperties:"true"`

	Email         string `json:"email,omitempty" format:"email" maxLength:"254"`
	FirstName     string `json:"first_name,omitempty" maxLength:"32"`
	LastName      string `json:"last_name,omitempty" maxLength:"32"`
	ContactNumber string `json:"contact_number,omitempty" maxLength:"32"`
	Address       string `json:"address,omitempty" maxLength:"200"`
	Password      string `json:"password,omitempty" minLength:"8" maxLength:"100"`
	OldPassword   string `json:"old_password,omitempty" doc:"Required when changing your own password"`
}

type UserListRequest struct {
	PageParams
	Email     string `query:"email" doc:"Case-insensitive substring match"`
	Username  string `query:"username" doc:"Case-insensitive substring match"`
	FirstName string `query:"first_name" doc:"Case-insensitive substring match"`
	LastName  string `query:"last_name" doc:"Case-insensitive substring match"`
}

type UserUpdateRequest struct {
	Body UserUpdateBody
}

type UserUpdateByIDRequest struct {
	IDParam
	Body UserUpdateBody
}
