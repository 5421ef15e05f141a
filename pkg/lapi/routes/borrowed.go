package routes

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/quatton/libra/pkg/lapi/apierr"
	"github.com/quatton/libra/pkg/lapi/schemas"
	"github.com/quatton/libra/pkg/lapi/services/borrowing"
	"github.com/quatton/libra/pkg/lapi/services/iam"
)

type borrowedCreateRequest struct {
	Body schemas.BorrowedInput
}

type borrowedUpdateRequest struct {
	schemas.IDParam
	Body schemas.BorrowedInput
}

func RegisterBorrowed(api huma.API, svc *borrowing.BorrowingService, iamSvc *iam.IAMService) {
	tags := []string{TagBorrowed.String()}

	huma.Register(api, huma.Operation{
		OperationID: "list-borrowed",
		Method:      http.MethodGet,
		Path:        "/api/borrowed/",
		Summary:     "List loans",
		Description: "Librarian only.",
		Tags:        tags,
		Security:    BearerAuth,
	}, func(ctx context.Context, input *schemas.ListRequest) (*schemas.EnvelopeOutput[[]schemas.Borrowed], error) {
		if _, err := iamSvc.RequireLibrarian(ctx); err != nil {
			return nil, err
		}
		rows, err := svc.List(ctx, input.Page())
		if err != nil {
			return nil, apierr.Huma(err)
		}
		return schemas.Wrap(http.StatusOK, "Borrowed records fetched", schemas.MapAll(rows, schemas.NewBorrowed)), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-my-borrowed",
		Method:      http.MethodGet,
		Path:        "/api/borrowed/user",
		Summary:     "List my loans",
		Tags:        tags,
		Security:    BearerAuth,
	}, func(ctx context.Context, input *schemas.ListRequest) (*schemas.EnvelopeOutput[[]schemas.Borrowed], error) {
		p, err := iamSvc.Require(ctx)
		if err != nil {
			return nil, err
		}
		rows, err := svc.ForUser(ctx, p.UserID, input.Page())
		if err != nil {
			return nil, apierr.Huma(err)
		}
		return schemas.Wrap(http.StatusOK, "Borrowed records fetched", schemas.MapAll(rows, schemas.NewBorrowed)), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-user-borrowed",
		Method:      http.MethodGet,
		Path:        "/api/borrowed/user/{user_id}",
		Summary:     "List a user's loans",
		Description: "Librarian only.",
		Tags:        tags,
		Security:    BearerAuth,
	}, func(ctx context.Context, input *schemas.BorrowedForUserRequest) (*schemas.EnvelopeOutput[[]schemas.Borrowed], error) {
		if _, err := iamSvc.RequireLibrarian(ctx); err != nil {
			return nil, err
		}
		rows, err := svc.ForUser(ctx, input.UserID, input.Page())
		if err != nil {
			return nil, apierr.Huma(err)
		}
		return schemas.Wrap(http.StatusOK, "Borrowed records fetched", schemas.MapAll(rows, schemas.NewBorrowed)), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-borrowed",
		Method:      http.MethodGet,
		Path:        "/api/borrowed/{id}",
		Summary:     "Get loan",
		Description: "Readers only see their own loans.",
		Tags:        tags,
		Security:    BearerAuth,
	}, func(ctx context.Context, input *schemas.IDParam) (*schemas.EnvelopeOutput[schemas.Borrowed], error) {
		p, err := iamSvc.Require(ctx)
		if err != nil {
			return nil, err
		}
		b, err := svc.Get(ctx, input.ID)
		if err != nil {
			return nil, apierr.Huma(err)
		}
		if !p.IsLibrarian && b.UserID != p.UserID {
			return nil, apierr.Huma(apierr.NotFound("borrowed record", input.ID))
		}
		return schemas.Wrap(http.StatusOK, "Borrowed record fetched", schemas.NewBorrowed(b)), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-borrowed",
		Method:        http.MethodPost,
		Path:          "/api/borrowed/",
		Summary:       "Lend a copy",
		Description:   "Records a loan and marks the copy borrowed. Librarian only.",
		Tags:          tags,
		Security:      BearerAuth,
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *borrowedCreateRequest) (*schemas.EnvelopeOutput[schemas.Borrowed], error) {
		if _, err := iamSvc.RequireLibrarian(ctx); err != nil {
			return nil, err
		}
		b, err := svc.Create(ctx, input.Body.Model())
		if err != nil {
			return nil, apierr.Huma(err)
		}
		return schemas.Wrap(http.StatusCreated, "Borrowed record created", schemas.NewBorrowed(b)), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-borrowed",
		Method:      http.MethodPut,
		Path:        "/api/borrowed/{id}",
		Summary:     "Update loan",
		Description: "Librarian only. Copy and borrower cannot change.",
		Tags:        tags,
		Security:    BearerAuth,
	}, func(ctx context.Context, input *borrowedUpdateRequest) (*schemas.EnvelopeOutput[schemas.Borrowed], error) {
		if _, err := iamSvc.RequireLibrarian(ctx); err != nil {
			return nil, err
		}
		b, err := svc.Update(ctx, input.ID, input.Body.Model())
		if err != nil {
			return nil, apierr.Huma(err)
		}
		return schemas.Wrap(http.StatusOK, "Borrowed record updated", schemas.NewBorrowed(b)), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "return-my-borrowed",
		Method:      http.MethodPut,
		Path:        "/api/borrowed/return_borrowed_user/{id}",
		Summary:     "Return my loan",
		Tags:        tags,
		Security:    BearerAuth,
	}, func(ctx context.Context, input *schemas.IDParam) (*schemas.EnvelopeOutput[schemas.Borrowed], error) {
		p, err := iamSvc.Require(ctx)
		if err != nil {
			return nil, err
		}
		b, err := svc.Return(ctx, input.ID, p.UserID)
		if err != nil {
			return nil, apierr.Huma(err)
		}
		return schemas.Wrap(http.StatusOK, "Book returned", schemas.NewBorrowed(b)), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "return-borrowed",
		Method:      http.MethodPut,
		Path:        "/api/borrowed/return/{id}",
		Summary:     "Return a loan",
		Description: "Librarian only.",
		Tags:        tags,
		Security:    BearerAuth,
	}, func(ctx context.Context, input *schemas.IDParam) (*schemas.EnvelopeOutput[schemas.Borrowed], error) {
		if _, err := iamSvc.RequireLibrarian(ctx); err != nil {
			return nil, err
		}
		b, err := svc.Return(ctx, input.ID, 0)
		if err != nil {
			return nil, apierr.Huma(err)
		}
		return schemas.Wrap(http.StatusOK, "Book returned", schemas.NewBorrowed(b)), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-borrowed",
		Method:      http.MethodDelete,
		Path:        "/api/borrowed/{id}",
		Summary:     "Delete loan",
		Description: "Librarian only. An open loan releases its copy.",
		Tags:        tags,
		Security:    BearerAuth,
	}, func(ctx context.Context, input *schemas.IDParam) (*schemas.EnvelopeOutput[*schemas.Empty], error) {
		if _, err := iamSvc.RequireLibrarian(ctx); err != nil {
			return nil, err
		}
		if err := svc.Delete(ctx, input.ID); err != nil {
			return nil, apierr.Huma(err)
		}
		return schemas.Done(http.StatusOK, "Borrowed record deleted"), nil
	})
}
