package schemas

import "github.com/quatton/libra/pkg/db/models"

// TokenRequest is the OAuth2 password grant form.
type TokenRequest struct {
	RawBody []byte `contentType:"application/x-www-form-urlencoded" doc:"grant_type=password&username=...&password=..."`
}

// TokenBody follows the OAuth2 token response, extended with the user.
type TokenBody struct {
	AccessToken  string `json:"access_token" doc:"Short-lived access token"`
	RefreshToken string `json:"refresh_token" doc:"Long-lived refresh token"`
	TokenType    string `json:"token_type" example:"bearer" doc:"Token type descriptor"`
	ExpiresIn    int    `json:"expires_in" doc:"Access token lifetime in seconds"`
	User         User   `json:"user" doc:"The authenticated user"`
}

type TokenResponse struct {
	Body TokenBody
}

type SignupBody struct {
	_ struct{} `json:"-" additionalProperties:"true"`

	Email         string `json:"email" format:"email" maxLength:"254"`
	Username      string `json:"username" minLength:"3" maxLength:"32"`
	Password      string `json:"password" minLength:"8" maxLength:"100" doc:"Mixed case letters, a digit and a symbol"`
	FirstName     string `json:"first_name" minLength:"1" maxLength:"32"`
	LastName      string `json:"last_name" minLength:"1" maxLength:"32"`
	ContactNumber string `json:"contact_number,omitempty" maxLength:"32"`
	Address       string `json:"address,omitempty" maxLength:"200"`
}

func (b SignupBody) Model() *models.User {
	return &models.User{
		Email:         b.Email,
		Username:      b.Username,
		FirstName:     b.FirstName,
		LastName:      b.LastName,
		ContactNumber: b.ContactNumber,
		Address:       b.Address,
	}
}

type SignupRequest struct {
	Body SignupBody
}

type RefreshBody struct {
	RefreshToken string `json:"refresh_token" minLength:"1" doc:"Refresh token issued at login"`
}

// RefreshTokenRequest represents the payload for requesting a new access token.
type RefreshTokenRequest struct {
	Body RefreshBody
}

// RefreshData carries the new access token. The refresh token is echoed
// unchanged.
type RefreshData struct {
	AccessToken  string `json:"access_token" doc:"New short-lived access token"`
	RefreshToken string `json:"refresh_token" doc:"The refresh token that was presented"`
	TokenType    string `json:"token_type" example:"bearer"`
}

type LogoutRequest struct {
	Authorization string `header:"Authorization" doc:"Bearer access token to revoke alongside the refresh token"`
	Body          RefreshBody
}
