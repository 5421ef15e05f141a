package schemas

import "github.com/quatton/libra/pkg/db/models"

type Borrowed struct {
	ID         int64   `json:"id"`
	CopyID     int64   `json:"copy_id"`
	UserID     int64   `json:"user_id"`
	IssueDate  string  `json:"issue_date" format:"date"`
	DueDate    string  `json:"due_date" format:"date"`
	ReturnDate *string `json:"return_date,omitempty" format:"date"`
}

func NewBorrowed(m *models.Borrowed) Borrowed {
	return Borrowed{
		ID:         m.ID,
		CopyID:     m.CopyID,
		UserID:     m.UserID,
		IssueDate:  DateOnly(m.IssueDate),
		DueDate:    DateOnly(m.DueDate),
		ReturnDate: dateOnlyPtr(m.ReturnDate),
	}
}

type BorrowedInput struct {
	_ struct{} `json:"-" additionalProperties:"true"`

	CopyID     int64   `json:"copy_id" minimum:"1"`
	UserID     int64   `json:"user_id" minimum:"1"`
	IssueDate  string  `json:"issue_date" format:"date"`
	DueDate    string  `json:"due_date" format:"date" doc:"Must be after issue_date"`
	ReturnDate *string `json:"return_date,omitempty" format:"date" doc:"Must not precede issue_date"`
}

func (in BorrowedInput) Model() *models.Borrowed {
	return &models.Borrowed{
		CopyID:     in.CopyID,
		UserID:     in.UserID,
		IssueDate:  in.IssueDate,
		DueDate:    in.DueDate,
		ReturnDate: in.ReturnDate,
	}
}

type BorrowedForUserRequest struct {
	PageParams
	UserID int64 `path:"user_id" minimum:"1"`
}
