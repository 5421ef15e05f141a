package lapi_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/quatton/libra/pkg/db"
	"github.com/quatton/libra/pkg/kv"
	"github.com/quatton/libra/pkg/lapi"
	"github.com/quatton/libra/pkg/lapi/config"
	"github.com/quatton/libra/pkg/lsdk"
	"github.com/quatton/libra/pkg/lsdk/lerr"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminPassword  = "Adm1n!secret"
	readerPassword = "Read3r!secret"
)

type testEnv struct {
	srv *httptest.Server
	cfg *config.EnvConfig
}

func newTestEnv(t *testing.T, mutate func(*config.EnvConfig)) *testEnv {
	t.Helper()
	cfg := &config.EnvConfig{
		AuthSecret:                 strings.Repeat("x", 32),
		AccessTokenTTL:             300,
		RefreshTokenTTL:            3600,
		LoginRatePerMinute:         600,
		LoginBurst:                 50,
		BootstrapLibrarianUsername: "admin",
		BootstrapLibrarianPassword: adminPassword,
		BootstrapLibrarianEmail:    "admin@example.com",
	}
	if mutate != nil {
		mutate(cfg)
	}

	api, svcs := lapi.New(cfg, db.NewMemoryRepos(), kv.NewMemoryStore())
	svcs.Auth.SetBcryptCost(bcrypt.MinCost)
	if err := svcs.Auth.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	srv := httptest.NewServer(api.Router)
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, cfg: cfg}
}

func (e *testEnv) client(t *testing.T) *lsdk.Client {
	t.Helper()
	c, err := lsdk.New(context.Background(), &lsdk.Config{BaseURL: e.srv.URL}, kv.NewMemoryStore())
	if err != nil {
		t.Fatalf("lsdk.New: %v", err)
	}
	return c
}

func (e *testEnv) librarian(t *testing.T) *lsdk.Client {
	t.Helper()
	c := e.client(t)
	if _, err := c.Login(context.Background(), lsdk.Credentials{Username: "admin", Password: adminPassword}); err != nil {
		t.Fatalf("librarian login: %v", err)
	}
	return c
}

func (e *testEnv) reader(t *testing.T, username string) *lsdk.Client {
	t.Helper()
	c := e.client(t)
	_, err := c.Signup(context.Background(), lsdk.SignupRequest{
		Email:     username + "@example.com",
		Username:  username,
		Password:  readerPassword,
		FirstName: "Reader",
		LastName:  "One",
	})
	if err != nil {
		t.Fatalf("signup %s: %v", username, err)
	}
	return c
}

// raw sends a request outside the SDK so no refresh is attempted.
func (e *testEnv) raw(t *testing.T, method, path, bearer, contentType, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	resp := env.raw(t, http.MethodGet, "/health", "", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" || body.Checks["database"] != "ok" || body.Checks["store"] != "ok" {
		t.Errorf("body = %+v", body)
	}
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	reader := env.reader(t, "rita")

	me, err := reader.Users.Me(ctx)
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if me.Username != "rita" || me.IsLibrarian {
		t.Errorf("me = %+v", me)
	}

	if _, err := reader.Refresh(ctx); err != nil {
		t.Fatalf("explicit refresh: %v", err)
	}

	old := reader.Session().Tokens()
	if err := reader.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if reader.Session().Active() {
		t.Error("session still active after logout")
	}

	// the server no longer honours either credential
	if resp := env.raw(t, http.MethodGet, "/api/user/me", old.Access, "", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("revoked access token: status = %d", resp.StatusCode)
	}
	body := `{"refresh_token":"` + old.Refresh + `"}`
	if resp := env.raw(t, http.MethodPost, "/api/auth/refresh_token", "", "application/json", body); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("revoked refresh token: status = %d", resp.StatusCode)
	}

	if _, err := reader.Users.Me(ctx); !lerr.IsAuth(err) {
		t.Errorf("Me after logout: err = %v", err)
	}
}

func TestSilentRefresh(t *testing.T) {
	env := newTestEnv(t, func(c *config.EnvConfig) { c.AccessTokenTTL = 1 })
	ctx := context.Background()
	reader := env.reader(t, "sam")
	before := reader.Session().Tokens()

	time.Sleep(2 * time.Second)

	me, err := reader.Users.Me(ctx)
	if err != nil {
		t.Fatalf("Me after expiry: %v", err)
	}
	if me.Username != "sam" {
		t.Errorf("me = %+v", me)
	}
	after := reader.Session().Tokens()
	if after.Access == before.Access {
		t.Error("access token was not replaced")
	}
	if after.Refresh != before.Refresh {
		t.Error("refresh token should not rotate")
	}
}

func TestLoginErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.client(t).Login(ctx, lsdk.Credentials{Username: "admin", Password: "nope"})
	if lerr.StatusOf(err) != http.StatusUnauthorized {
		t.Errorf("bad password: err = %v", err)
	}

	form := url.Values{"grant_type": {"client_credentials"}, "username": {"admin"}, "password": {adminPassword}}
	resp := env.raw(t, http.MethodPost, "/api/auth/token", "", "application/x-www-form-urlencoded", form.Encode())
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("wrong grant type: status = %d", resp.StatusCode)
	}
}

func TestLoginThrottling(t *testing.T) {
	env := newTestEnv(t, func(c *config.EnvConfig) {
		c.LoginRatePerMinute = 1
		c.LoginBurst = 1
	})
	form := url.Values{"username": {"admin"}, "password": {adminPassword}}.Encode()

	if resp := env.raw(t, http.MethodPost, "/api/auth/token", "", "application/x-www-form-urlencoded", form); resp.StatusCode != http.StatusOK {
		t.Fatalf("first login: status = %d", resp.StatusCode)
	}
	resp := env.raw(t, http.MethodPost, "/api/auth/token", "", "application/x-www-form-urlencoded", form)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second login: status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q", got)
	}

	metrics := env.raw(t, http.MethodGet, "/metrics", "", "", "")
	raw, _ := io.ReadAll(metrics.Body)
	if !strings.Contains(string(raw), `libra_auth_logins_total{result="throttled"} 1`) {
		t.Error("throttled login not counted in /metrics")
	}
}

func TestCatalogAndBorrowing(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	lib := env.librarian(t)
	reader := env.reader(t, "rob")

	lang, err := lib.Languages.Create(ctx, &lsdk.Language{Name: "English"})
	if err != nil {
		t.Fatalf("create language: %v", err)
	}
	genre, err := lib.Genres.Create(ctx, &lsdk.Genre{Name: "Dystopia"})
	if err != nil {
		t.Fatal(err)
	}
	author, err := lib.Authors.Create(ctx, &lsdk.Author{FirstName: "George", LastName: "Orwell", BirthDate: "1903-06-25"})
	if err != nil {
		t.Fatal(err)
	}
	book, err := lib.Books.Create(ctx, &lsdk.Book{
		Title:             "Animal Farm",
		ISBN:              "9780451526342",
		DateOfPublication: "1945-08-17",
		LanguageID:        lang.ID,
		AuthorIDs:         []int64{author.ID},
		GenreIDs:          []int64{genre.ID},
	})
	if err != nil {
		t.Fatalf("create book: %v", err)
	}
	cp, err := lib.Copies.Create(ctx, &lsdk.Copy{BookID: book.ID, LanguageID: lang.ID})
	if err != nil {
		t.Fatal(err)
	}
	if cp.Status != "available" {
		t.Errorf("new copy status = %q", cp.Status)
	}

	// readers may browse but not write
	if _, err := reader.Genres.Create(ctx, &lsdk.Genre{Name: "Poetry"}); lerr.StatusOf(err) != http.StatusForbidden {
		t.Errorf("reader create genre: err = %v", err)
	}
	books, err := reader.Books.List(ctx, lsdk.BookFilter{Authors: []int64{author.ID}}.Apply(nil))
	if err != nil || len(books) != 1 {
		t.Fatalf("books by author = %v, %v", books, err)
	}
	none, err := reader.Books.List(ctx, lsdk.BookFilter{Authors: []int64{author.ID + 100}}.Apply(nil))
	if err != nil || len(none) != 0 {
		t.Fatalf("books by unknown author = %v, %v", none, err)
	}
	copies, err := reader.Copies.ListByBook(ctx, book.ID, nil)
	if err != nil || len(copies) != 1 {
		t.Fatalf("copies of book = %v, %v", copies, err)
	}

	me, err := reader.Users.Me(ctx)
	if err != nil {
		t.Fatal(err)
	}
	loan, err := lib.Borrowed.Create(ctx, &lsdk.Borrowed{
		CopyID:    cp.ID,
		UserID:    me.ID,
		IssueDate: time.Now().UTC().Format("2006-01-02"),
		DueDate:   time.Now().UTC().AddDate(0, 0, 14).Format("2006-01-02"),
	})
	if err != nil {
		t.Fatalf("lend: %v", err)
	}
	if got, _ := lib.Copies.Get(ctx, cp.ID); got == nil || got.Status != "borrowed" {
		t.Errorf("copy after lend = %+v", got)
	}

	mine, err := reader.Borrowed.Mine(ctx, nil)
	if err != nil || len(mine) != 1 {
		t.Fatalf("my loans = %v, %v", mine, err)
	}
	if _, err := reader.Borrowed.List(ctx, nil); lerr.StatusOf(err) != http.StatusForbidden {
		t.Errorf("reader list all loans: err = %v", err)
	}

	returned, err := reader.Borrowed.Return(ctx, loan.ID)
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if returned.ReturnDate == nil {
		t.Error("return date not set")
	}
	if got, _ := lib.Copies.Get(ctx, cp.ID); got == nil || got.Status != "available" {
		t.Errorf("copy after return = %+v", got)
	}
	if _, err := lib.Borrowed.ReturnAny(ctx, loan.ID); lerr.StatusOf(err) != http.StatusConflict {
		t.Errorf("double return: err = %v", err)
	}

	if err := lib.Genres.Delete(ctx, genre.ID); err != nil {
		t.Fatalf("delete genre: %v", err)
	}
	if _, err := lib.Genres.Get(ctx, genre.ID); lerr.StatusOf(err) != http.StatusNotFound {
		t.Errorf("get deleted genre: err = %v", err)
	}
}

func TestUserAdministration(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	lib := env.librarian(t)
	reader := env.reader(t, "una")
	other := env.reader(t, "otto")

	me, err := reader.Users.Me(ctx)
	if err != nil {
		t.Fatal(err)
	}
	otherMe, err := other.Users.Me(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := reader.Users.Get(ctx, otherMe.ID); lerr.StatusOf(err) != http.StatusForbidden {
		t.Errorf("reader get other user: err = %v", err)
	}
	if _, err := reader.Users.UpdateMe(ctx, &lsdk.UserUpdate{Password: "N3w!password"}); lerr.StatusOf(err) != http.StatusUnprocessableEntity {
		t.Errorf("password change without old password: err = %v", err)
	}
	updated, err := reader.Users.UpdateMe(ctx, &lsdk.UserUpdate{Address: "1 Library Lane"})
	if err != nil || updated.Address != "1 Library Lane" {
		t.Fatalf("UpdateMe = %+v, %v", updated, err)
	}

	users, err := lib.Users.List(ctx, &lsdk.ListOptions{Params: map[string]any{"username": "un"}})
	if err != nil || len(users) != 1 || users[0].ID != me.ID {
		t.Fatalf("filtered users = %+v, %v", users, err)
	}

	newLib, err := lib.Users.RegisterLibrarian(ctx, lsdk.SignupRequest{
		Email: "lib2@example.com", Username: "lib2", Password: adminPassword, FirstName: "L", LastName: "Two",
	})
	if err != nil || !newLib.IsLibrarian {
		t.Fatalf("RegisterLibrarian = %+v, %v", newLib, err)
	}

	// deleting an account revokes the credentials it already holds
	if err := lib.Users.Delete(ctx, me.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if _, err := reader.Users.Me(ctx); !lerr.IsAuth(err) {
		t.Errorf("deleted user still authorized: err = %v", err)
	}
}
