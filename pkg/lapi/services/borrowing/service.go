// Package borrowing tracks loans and keeps each copy's status in step with
// them: an open loan marks its copy borrowed, a return marks it available.
package borrowing

import (
	"context"
	"errors"
	"time"

	"github.com/quatton/libra/pkg/db"
	"github.com/quatton/libra/pkg/db/models"
	"github.com/quatton/libra/pkg/lapi/apierr"
	"github.com/quatton/libra/pkg/lapi/services/catalog"
	"github.com/quatton/libra/pkg/llog"
)

type BorrowingService struct {
	loans  db.Repository[models.Borrowed]
	copies db.Repository[models.Copy]
	users  db.Repository[models.User]
	log    *llog.Logger
	now    func() time.Time
}

func NewBorrowingService(repos *db.Repos) *BorrowingService {
	return &BorrowingService{
		loans:  repos.Borrowed,
		copies: repos.Copies,
		users:  repos.Users,
		log:    llog.NewDefault().With("component", "borrowing"),
		now:    time.Now,
	}
}

func (s *BorrowingService) List(ctx context.Context, page db.Page) ([]models.Borrowed, error) {
	return s.loans.List(ctx, page, db.Filter{})
}

func (s *BorrowingService) ForUser(ctx context.Context, userID int64, page db.Page) ([]models.Borrowed, error) {
	var f db.Filter
	return s.loans.List(ctx, page, *f.SetEq("user_id", userID))
}

func (s *BorrowingService) Get(ctx context.Context, id int64) (*models.Borrowed, error) {
	b, err := s.loans.Get(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apierr.NotFound("borrowed record", id)
	}
	return b, err
}

func validateDates(b *models.Borrowed) error {
	issued, err := catalog.ParseDate("issue_date", b.IssueDate)
	if err != nil {
		return err
	}
	due, err := catalog.ParseDate("due_date", b.DueDate)
	if err != nil {
		return err
	}
	if !due.After(issued) {
		return apierr.Invalid("due_date", "must be after issue_date")
	}
	if b.ReturnDate == nil || *b.ReturnDate == "" {
		b.ReturnDate = nil
		return nil
	}
	returned, err := catalog.ParseDate("return_date", *b.ReturnDate)
	if err != nil {
		return err
	}
	if returned.Before(issued) {
		return apierr.Invalid("return_date", "must not precede issue_date")
	}
	return nil
}

func (s *BorrowingService) setCopyStatus(ctx context.Context, c *models.Copy, status string) error {
	c.Status = status
	return s.copies.Update(ctx, c)
}

// claimCopy marks c borrowed, provided it is still available in storage.
func (s *BorrowingService) claimCopy(ctx context.Context, c *models.Copy) error {
	if c.Status != models.CopyAvailable {
		return apierr.Conflict("copy %d is already borrowed", c.ID)
	}
	c.Status = models.CopyBorrowed
	var cond db.Filter
	err := s.copies.UpdateIf(ctx, c, *cond.SetEq("status", models.CopyAvailable))
	if errors.Is(err, db.ErrConflict) {
		return apierr.Conflict("copy %d is already borrowed", c.ID)
	}
	return err
}

// Create opens a loan. The copy must be available and the borrower active.
// A record created with a return date is history and leaves the copy alone.
func (s *BorrowingService) Create(ctx context.Context, b *models.Borrowed) (*models.Borrowed, error) {
	b.ID = 0
	if err := validateDates(b); err != nil {
		return nil, err
	}

	u, err := s.users.Get(ctx, b.UserID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apierr.Invalid("user_id", "user %d does not exist", b.UserID)
	} else if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, apierr.Invalid("user_id", "user %d is not active", b.UserID)
	}

	c, err := s.copies.Get(ctx, b.CopyID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apierr.Invalid("copy_id", "copy %d does not exist", b.CopyID)
	} else if err != nil {
		return nil, err
	}

	open := b.ReturnDate == nil
	if open {
		if err := s.claimCopy(ctx, c); err != nil {
			return nil, err
		}
	}

	if err := s.loans.Create(ctx, b); err != nil {
		if open {
			if rerr := s.setCopyStatus(ctx, c, models.CopyAvailable); rerr != nil {
				s.log.Error("copy left borrowed after failed loan", "copy", c.ID, "error", rerr)
			}
		}
		return nil, err
	}
	return b, nil
}

// Update edits the dates of a loan. Setting a return date on an open loan
// releases the copy.
func (s *BorrowingService) Update(ctx context.Context, id int64, b *models.Borrowed) (*models.Borrowed, error) {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.CopyID != cur.CopyID || b.UserID != cur.UserID {
		return nil, apierr.Invalid("copy_id", "copy_id and user_id cannot change; delete the record instead")
	}
	b.ID = id
	if err := validateDates(b); err != nil {
		return nil, err
	}
	if cur.ReturnDate != nil && b.ReturnDate == nil {
		return nil, apierr.Invalid("return_date", "a returned loan cannot be reopened")
	}

	if err := s.loans.Update(ctx, b); err != nil {
		return nil, err
	}
	if cur.ReturnDate == nil && b.ReturnDate != nil {
		if err := s.release(ctx, b.CopyID); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Return closes an open loan today. When userID is non-zero the loan must
// belong to that user.
func (s *BorrowingService) Return(ctx context.Context, id, userID int64) (*models.Borrowed, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if userID != 0 && b.UserID != userID {
		// not yours: indistinguishable from a missing record
		return nil, apierr.NotFound("borrowed record", id)
	}
	if b.ReturnDate != nil {
		return nil, apierr.Conflict("borrowed record %d was already returned", id)
	}

	today := s.now().UTC().Format(catalog.DateLayout)
	if issued, err := catalog.ParseDate("issue_date", b.IssueDate); err == nil && issued.Format(catalog.DateLayout) > today {
		today = issued.Format(catalog.DateLayout)
	}
	b.ReturnDate = &today

	if err := s.loans.Update(ctx, b); err != nil {
		return nil, err
	}
	if err := s.release(ctx, b.CopyID); err != nil {
		return nil, err
	}
	return b, nil
}

// Delete removes the record, releasing the copy if the loan was open.
func (s *BorrowingService) Delete(ctx context.Context, id int64) error {
	b, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.loans.Delete(ctx, id); err != nil {
		return err
	}
	if b.ReturnDate == nil {
		return s.release(ctx, b.CopyID)
	}
	return nil
}

func (s *BorrowingService) release(ctx context.Context, copyID int64) error {
	c, err := s.copies.Get(ctx, copyID)
	if errors.Is(err, db.ErrNotFound) {
		// copy deleted while on loan
		return nil
	}
	if err != nil {
		return err
	}
	return s.setCopyStatus(ctx, c, models.CopyAvailable)
}
