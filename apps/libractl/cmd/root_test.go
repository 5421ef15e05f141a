package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/quatton/libra/pkg/db"
	"github.com/quatton/libra/pkg/kv"
	"github.com/quatton/libra/pkg/lapi"
	"github.com/quatton/libra/pkg/lapi/config"
	"github.com/quatton/libra/pkg/lsdk"
	"github.com/quatton/libra/pkg/lsdk/lerr"
	"golang.org/x/crypto/bcrypt"
)

const adminPassword = "Adm1n!secret"

// cli runs libractl against a fresh in-memory server, keeping the session
// in a badger directory shared by every invocation of one test.
type cli struct {
	t       *testing.T
	baseURL string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	cfg := &config.EnvConfig{
		AuthSecret:                 strings.Repeat("s", 32),
		AccessTokenTTL:             300,
		RefreshTokenTTL:            3600,
		LoginRatePerMinute:         600,
		LoginBurst:                 50,
		BootstrapLibrarianUsername: "admin",
		BootstrapLibrarianPassword: adminPassword,
		BootstrapLibrarianEmail:    "admin@example.com",
	}
	api, svcs := lapi.New(cfg, db.NewMemoryRepos(), kv.NewMemoryStore())
	svcs.Auth.SetBcryptCost(bcrypt.MinCost)
	if err := svcs.Auth.Bootstrap(context.Background()); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(api.Router)
	t.Cleanup(srv.Close)

	t.Chdir(t.TempDir())
	t.Setenv("LIBRA_STOREPATH", t.TempDir())
	return &cli{t: t, baseURL: srv.URL}
}

func (c *cli) run(args ...string) (string, string, error) {
	c.t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--base-url", c.baseURL, "--store", kv.BackendBadger}, args...)
	err := run(context.Background(), full, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, errOut, err := c.run(args...)
	if err != nil {
		c.t.Fatalf("libractl %s: %v\nstderr: %s", strings.Join(args, " "), err, errOut)
	}
	return out
}

func TestSessionPersistsAcrossInvocations(t *testing.T) {
	c := newCLI(t)

	if out := c.mustRun("auth", "status"); !strings.Contains(out, "Not logged in") {
		t.Fatalf("status before login:\n%s", out)
	}
	if out := c.mustRun("auth", "login", "-u", "admin", "-p", adminPassword); !strings.Contains(out, "Logged in as admin (librarian)") {
		t.Fatalf("login:\n%s", out)
	}

	out := c.mustRun("auth", "status")
	if !strings.Contains(out, "Logged in as: admin") || !strings.Contains(out, "librarian") {
		t.Errorf("status after login:\n%s", out)
	}

	var me lsdk.User
	if err := json.Unmarshal([]byte(c.mustRun("me", "-o", "json")), &me); err != nil {
		t.Fatal(err)
	}
	if me.Username != "admin" || !me.IsLibrarian {
		t.Errorf("me = %+v", me)
	}

	if out := c.mustRun("auth", "refresh"); !strings.Contains(out, "Access token refreshed") {
		t.Errorf("refresh:\n%s", out)
	}

	if out := c.mustRun("auth", "logout"); !strings.Contains(out, "Logged out") {
		t.Errorf("logout:\n%s", out)
	}
	_, _, err := c.run("me")
	if !lerr.IsAuth(err) {
		t.Fatalf("me after logout: err = %v", err)
	}
	if h := hint(err); !strings.Contains(h, "libractl auth login") {
		t.Errorf("hint = %q", h)
	}
}

func TestCatalogAndLoans(t *testing.T) {
	c := newCLI(t)
	c.mustRun("auth", "login", "-u", "admin", "-p", adminPassword)

	createID := func(args ...string) int64 {
		t.Helper()
		var v struct {
			ID int64 `json:"id"`
		}
		if err := json.Unmarshal([]byte(c.mustRun(append(args, "-o", "json")...)), &v); err != nil {
			t.Fatal(err)
		}
		if v.ID == 0 {
			t.Fatalf("%v: no id", args)
		}
		return v.ID
	}

	lang := createID("languages", "create", "-d", `{"name": "English"}`)
	genre := createID("genres", "create", "-d", "name: Fiction")
	author := createID("authors", "create", "-d", `{"first_name": "George", "last_name": "Orwell", "birth_date": "1903-06-25"}`)
	book := createID("books", "create", "-d", fmt.Sprintf(
		`{"title": "Animal Farm", "isbn": "9780451526342", "date_of_publication": "1945-08-17", "language_id": %d, "author_ids": [%d], "genre_ids": [%d]}`,
		lang, author, genre))
	copyID := createID("copies", "create", "-d", fmt.Sprintf(`{"book_id": %d, "language_id": %d}`, book, lang))

	out := c.mustRun("books", "list", "--author", fmt.Sprint(author))
	if !strings.Contains(out, "Animal Farm") || !strings.Contains(out, "TITLE") {
		t.Errorf("books list:\n%s", out)
	}
	if out := c.mustRun("books", "list", "--all", "--search", "nomatch"); strings.Contains(out, "Animal Farm") {
		t.Errorf("search should filter:\n%s", out)
	}
	if out := c.mustRun("copies", "of-book", fmt.Sprint(book)); !strings.Contains(out, "available") {
		t.Errorf("copies of-book:\n%s", out)
	}

	out = c.mustRun("authors", "update", fmt.Sprint(author), "-d", `death_date: "1950-01-21"`, "-o", "yaml")
	if !strings.Contains(out, "first_name: George") || !strings.Contains(out, "1950-01-21") {
		t.Errorf("partial update lost fields:\n%s", out)
	}

	me := c.mustRun("me", "-o", "json")
	var admin lsdk.User
	if err := json.Unmarshal([]byte(me), &admin); err != nil {
		t.Fatal(err)
	}
	loan := createID("borrowed", "create", "-d", fmt.Sprintf(
		`{"copy_id": %d, "user_id": %d, "issue_date": "2024-03-01", "due_date": "2024-03-15"}`, copyID, admin.ID))

	if out := c.mustRun("borrowed", "mine"); !strings.Contains(out, "2024-03-15") {
		t.Errorf("borrowed mine:\n%s", out)
	}
	if out := c.mustRun("copies", "get", fmt.Sprint(copyID)); !strings.Contains(out, "borrowed") {
		t.Errorf("copy should be borrowed:\n%s", out)
	}
	var returned lsdk.Borrowed
	if err := json.Unmarshal([]byte(c.mustRun("borrowed", "return", fmt.Sprint(loan), "-o", "json")), &returned); err != nil {
		t.Fatal(err)
	}
	if returned.ReturnDate == nil {
		t.Errorf("return date not set: %+v", returned)
	}

	if out := c.mustRun("genres", "delete", fmt.Sprint(genre)); !strings.Contains(out, "Deleted genre") {
		t.Errorf("delete:\n%s", out)
	}
	_, _, err := c.run("genres", "get", fmt.Sprint(genre))
	if lerr.StatusOf(err) != http.StatusNotFound {
		t.Errorf("get deleted genre: err = %v", err)
	}
}

func TestReaderPermissions(t *testing.T) {
	c := newCLI(t)
	t.Setenv("LIBRA_PASSWORD", "Read3r!secret")

	out := c.mustRun("auth", "signup", "-u", "rita", "--email", "rita@example.com", "--first-name", "Rita", "--last-name", "Reader")
	if !strings.Contains(out, "rita (reader)") {
		t.Fatalf("signup:\n%s", out)
	}

	_, _, err := c.run("genres", "create", "-d", "name: Horror")
	if lerr.StatusOf(err) != http.StatusForbidden {
		t.Fatalf("reader create: err = %v", err)
	}
	if h := hint(err); !strings.Contains(h, "librarian") {
		t.Errorf("hint = %q", h)
	}

	if _, _, err := c.run("users", "delete"); err == nil || !strings.Contains(err.Error(), "--yes") {
		t.Errorf("self delete without --yes: err = %v", err)
	}
	out = c.mustRun("users", "update", "-d", `{"address": "1 Library Lane"}`, "-o", "yaml")
	if !strings.Contains(out, "1 Library Lane") {
		t.Errorf("self update:\n%s", out)
	}
}

func TestUnknownStore(t *testing.T) {
	t.Chdir(t.TempDir())
	err := run(context.Background(), []string{"--store", "floppy", "auth", "status"}, &bytes.Buffer{}, &bytes.Buffer{})
	if !errors.Is(err, kv.ErrUnknownBackend) {
		t.Errorf("err = %v, want ErrUnknownBackend", err)
	}
}

func TestHintNetwork(t *testing.T) {
	c := newCLI(t)
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()
	c.baseURL = dead.URL
	_, _, err := c.run("genres", "list")
	if !lerr.IsCode(err, lerr.CodeNetwork) {
		t.Fatalf("err = %v, want network error", err)
	}
	if h := hint(err); !strings.Contains(h, "--base-url") {
		t.Errorf("hint = %q", h)
	}
}
