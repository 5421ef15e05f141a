package routes

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/quatton/libra/pkg/lapi/apierr"
	"github.com/quatton/libra/pkg/lapi/schemas"
	"github.com/quatton/libra/pkg/lapi/services/iam"
	"github.com/quatton/libra/pkg/lapi/services/users"
)

func RegisterUsers(api huma.API, svc *users.UsersService, iamSvc *iam.IAMService) {
	tags := []string{TagUsers.String()}

	huma.Register(api, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/api/user/",
		Summary:     "List users",
		Description: "Lists accounts, optionally filtered by substring. Librarian only.",
		Tags:        tags,
		Security:    BearerAuth,
	}, func(ctx context.Context, input *schemas.UserListRequest) (*schemas.EnvelopeOutput[[]schemas.User], error) {
		if _, err := iamSvc.RequireLibrarian(ctx); err != nil {
			return nil, err
		}
		rows, err := svc.List(ctx, input.Page(), users.Filter(input.Email, input.Username, input.FirstName, input.LastName))
		if err != nil {
			return nil, apierr.Huma(err)
		}
		return schemas.Wrap(http.StatusOK, "Users fetched", schemas.MapAll(rows, schemas.NewUser)), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-me",
		Method:      http.MethodGet,
		Path:        "/api/user/me",
		Summary:     "Get current user",
		Description: "Retrieves the account of the authenticated caller",
		Tags:        tags,
		Security:    BearerAuth,
	}, func(ctx context.Context, input *struct{}) (*schemas.EnvelopeOutput[schemas.User], error) {
		p, err := iamSvc.Require(ctx)
		if err != nil {
			return nil, err
		}
		u, err := svc.Get(ctx, p.UserID)
		if err != nil {
			return nil, apierr.Huma(err)
		}
		return schemas.Wrap(http.StatusOK, "User fetched", schemas.NewUser(u)), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-user",
		Method:      http.MethodGet,
		Path:        "/api/user/{id}",
		Summary:     "Get user",
		Description: "Retrieves an account. Readers may only fetch their own.",
		Tags:        tags,
		Security:    BearerAuth,
	}, func(ctx context.Context, input *schemas.IDParam) (*schemas.EnvelopeOutput[schemas.User], error) {
		if _, err := iamSvc.RequireSelfOrLibrarian(ctx, input.ID); err != nil {
			return nil, err
		}
		u, err := svc.Get(ctx, input.ID)
		if err != nil {
			return nil, apierr.Huma(err)
		}
		return schemas.Wrap(http.StatusOK, "User fetched", schemas.NewUser(u)), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-me",
		Method:      http.MethodPut,
		Path:        "/api/user/",
		Summary:     "Update current user",
		Description: "Updates the caller's account. Changing the password requires old_password.",
		Tags:        tags,
		Security:    BearerAuth,
	}, func(ctx context.Context, input *schemas.UserUpdateRequest) (*schemas.EnvelopeOutput[schemas.User], error) {
		p, err := iamSvc.Require(ctx)
		if err != nil {
			return nil, err
		}
		u, err := svc.Update(ctx, p.UserID, input.Body, true)
		if err != nil {
			return nil, apierr.Huma(err)
		}
		return schemas.Wrap(http.StatusOK, "User updated", schemas.NewUser(u)), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-user",
		Method:      http.MethodPut,
		Path:        "/api/user/{id}",
		Summary:     "Update user",
		Description: "Updates any account. Librarian only.",
		Tags:        tags,
		Security:    BearerAuth,
	}, func(ctx context.Context, input *schemas.UserUpdateByIDRequest) (*schemas.EnvelopeOutput[schemas.User], error) {
		p, err := iamSvc.RequireLibrarian(ctx)
		if err != nil {
			return nil, err
		}
		u, err := svc.Update(ctx, input.ID, input.Body, input.ID == p.UserID)
		if err != nil {
			return nil, apierr.Huma(err)
		}
		return schemas.Wrap(http.StatusOK, "User updated", schemas.NewUser(u)), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-me",
		Method:      http.MethodDelete,
		Path:        "/api/user/",
		Summary:     "Delete current user",
		Description: "Deletes the caller's account and revokes its tokens",
		Tags:        tags,
		Security:    BearerAuth,
	}, func(ctx context.Context, input *struct{}) (*schemas.EnvelopeOutput[*schemas.Empty], error) {
		p, err := iamSvc.Require(ctx)
		if err != nil {
			return nil, err
		}
		if err := svc.Delete(ctx, p.UserID); err != nil {
			return nil, apierr.Huma(err)
		}
		return schemas.Done(http.StatusOK, "User deleted"), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-user",
		Method:      http.MethodDelete,
		Path:        "/api/user/{id}",
		Summary:     "Delete user",
		Description: "Deletes an account and revokes its tokens. Librarian only.",
		Tags:        tags,
		Security:    BearerAuth,
	}, func(ctx context.Context, input *schemas.IDParam) (*schemas.EnvelopeOutput[*schemas.Empty], error) {
		if _, err := iamSvc.RequireLibrarian(ctx); err != nil {
			return nil, err
		}
		if err := svc.Delete(ctx, input.ID); err != nil {
			return nil, apierr.Huma(err)
		}
		return schemas.Done(http.StatusOK, "User deleted"), nil
	})
}
