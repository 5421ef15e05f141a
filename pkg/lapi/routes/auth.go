package routes

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/quatton/libra/pkg/db/models"
	"github.com/quatton/libra/pkg/lapi/apierr"
	"github.com/quatton/libra/pkg/lapi/schemas"
	"github.com/quatton/libra/pkg/lapi/services/authconfig"
	"github.com/quatton/libra/pkg/lapi/services/iam"
	"github.com/quatton/libra/pkg/lauth"
)

func tokenResponse(u *models.User, pair *lauth.Pair) *schemas.TokenResponse {
	resp := &schemas.TokenResponse{}
	resp.Body.AccessToken = pair.AccessToken
	resp.Body.RefreshToken = pair.RefreshToken
	resp.Body.TokenType = "bearer"
	resp.Body.ExpiresIn = pair.ExpiresIn
	resp.Body.User = schemas.NewUser(u)
	return resp
}

// authError maps credential failures to 401 and everything else through
// apierr.
func authError(err error) error {
	switch {
	case errors.Is(err, authconfig.ErrInvalidCredentials):
		return huma.Error401Unauthorized("Incorrect username or password")
	case errors.Is(err, authconfig.ErrInvalidToken), errors.Is(err, authconfig.ErrRevoked):
		return huma.Error401Unauthorized("Could not validate credentials", err)
	}
	return apierr.Huma(err)
}

func RegisterAuth(api huma.API, auth *authconfig.AuthService, iamSvc *iam.IAMService) {
	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/auth/token",
		Summary:     "Log in",
		Description: "OAuth2 password grant. Returns an access and a refresh token together with the user.",
		Tags:        []string{TagAuth.String()},
	}, func(ctx context.Context, input *schemas.TokenRequest) (*schemas.TokenResponse, error) {
		form, err := url.ParseQuery(string(input.RawBody))
		if err != nil {
			return nil, huma.Error400BadRequest("malformed form body")
		}
		if gt := form.Get("grant_type"); gt != "" && gt != "password" {
			return nil, huma.Error400BadRequest("unsupported_grant_type")
		}
		username, password := form.Get("username"), form.Get("password")
		if username == "" || password == "" {
			return nil, huma.Error422UnprocessableEntity("username and password are required")
		}

		if !auth.AllowLogin(iam.ClientIP(ctx)) {
			secs := int(math.Ceil(auth.RetryAfter().Seconds()))
			return nil, huma.ErrorWithHeaders(
				huma.Error429TooManyRequests("too many login attempts, try again later"),
				http.Header{"Retry-After": {strconv.Itoa(secs)}},
			)
		}

		u, pair, err := auth.Login(ctx, username, password)
		if err != nil {
			return nil, authError(err)
		}
		return tokenResponse(u, pair), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "register",
		Method:        http.MethodPost,
		Path:          "/api/auth/register",
		Summary:       "Sign up",
		Description:   "Creates a reader account and logs it in.",
		Tags:          []string{TagAuth.String()},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *schemas.SignupRequest) (*schemas.TokenResponse, error) {
		u := input.Body.Model()
		if err := auth.Register(ctx, u, input.Body.Password, false); err != nil {
			return nil, apierr.Huma(err)
		}
		pair, err := auth.IssueFor(u)
		if err != nil {
			return nil, apierr.Huma(err)
		}
		return tokenResponse(u, pair), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "register-librarian",
		Method:        http.MethodPost,
		Path:          "/api/auth/librarian/register",
		Summary:       "Create a librarian",
		Description:   "Creates a librarian account. Requires the librarian role; the caller's session is unchanged.",
		Tags:          []string{TagAuth.String()},
		Security:      BearerAuth,
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *schemas.SignupRequest) (*schemas.EnvelopeOutput[schemas.User], error) {
		if _, err := iamSvc.RequireLibrarian(ctx); err != nil {
			return nil, err
		}
		u := input.Body.Model()
		if err := auth.Register(ctx, u, input.Body.Password, true); err != nil {
			return nil, apierr.Huma(err)
		}
		return schemas.Wrap(http.StatusCreated, "Librarian created", schemas.NewUser(u)), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "refresh-token",
		Method:      http.MethodPost,
		Path:        "/api/auth/refresh_token",
		Summary:     "Refresh access token",
		Description: "Exchanges a refresh token for a new access token. The refresh token is returned unchanged.",
		Tags:        []string{TagAuth.String()},
	}, func(ctx context.Context, input *schemas.RefreshTokenRequest) (*schemas.EnvelopeOutput[schemas.RefreshData], error) {
		access, err := auth.Refresh(ctx, input.Body.RefreshToken)
		if err != nil {
			return nil, authError(err)
		}
		return schemas.Wrap(http.StatusOK, "Refresh successful", schemas.RefreshData{
			AccessToken:  access,
			RefreshToken: input.Body.RefreshToken,
			TokenType:    "bearer",
		}), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/auth/logout",
		Summary:     "Log out",
		Description: "Revokes the refresh token and the presented access token until they expire.",
		Tags:        []string{TagAuth.String()},
		Security:    BearerAuth,
	}, func(ctx context.Context, input *schemas.LogoutRequest) (*schemas.EnvelopeOutput[*schemas.Empty], error) {
		if err := auth.Logout(ctx, input.Body.RefreshToken, iam.BearerToken(input.Authorization)); err != nil {
			return nil, authError(err)
		}
		return schemas.Done(http.StatusOK, "user logged out"), nil
	})
}
