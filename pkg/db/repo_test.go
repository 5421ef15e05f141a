package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/quatton/libra/pkg/db/models"
)

func TestPageNormalize(t *testing.T) {
	tests := []struct {
		in         Page
		want       Page
		wantOffset int
	}{
		{Page{}, Page{1, 10}, 0},
		{Page{3, 5}, Page{3, 5}, 10},
		{Page{-1, 1000}, Page{1, MaxPageSize}, 0},
	}
	for _, tt := range tests {
		if got := tt.in.Normalize(); got != tt.want {
			t.Errorf("Normalize(%+v) = %+v, want %+v", tt.in, got, tt.want)
		}
		if got := tt.in.Offset(); got != tt.wantOffset {
			t.Errorf("Offset(%+v) = %d, want %d", tt.in, got, tt.wantOffset)
		}
	}
}

func TestMemoryRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository[models.Genre]("name")

	g := &models.Genre{Name: "Fantasy"}
	if err := repo.Create(ctx, g); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if g.ID != 1 {
		t.Errorf("ID = %d, want 1", g.ID)
	}

	if err := repo.Create(ctx, &models.Genre{Name: "fantasy"}); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate name, got %v", err)
	}

	got, err := repo.Get(ctx, g.ID)
	if err != nil || got.Name != "Fantasy" {
		t.Fatalf("Get = %+v, %v", got, err)
	}

	got.Name = "High Fantasy"
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if again, _ := repo.Get(ctx, g.ID); again.Name != "High Fantasy" {
		t.Errorf("update not stored: %+v", again)
	}

	if err := repo.Update(ctx, &models.Genre{Base: models.Base{ID: 99}, Name: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound updating missing row, got %v", err)
	}

	if err := repo.Delete(ctx, g.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.Get(ctx, g.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, g.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestMemoryRepositoryUpdateIf(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository[models.Copy]()

	c := &models.Copy{BookID: 1, LanguageID: 1, Status: models.CopyAvailable}
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	var available Filter
	available.SetEq("status", models.CopyAvailable)

	first := *c
	first.Status = models.CopyBorrowed
	if err := repo.UpdateIf(ctx, &first, available); err != nil {
		t.Fatalf("UpdateIf on a matching row failed: %v", err)
	}

	second := *c
	second.Status = models.CopyBorrowed
	if err := repo.UpdateIf(ctx, &second, available); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict once the row changed, got %v", err)
	}

	missing := models.Copy{Base: models.Base{ID: 99}, Status: models.CopyBorrowed}
	if err := repo.UpdateIf(ctx, &missing, available); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for a missing row, got %v", err)
	}
}

func TestMemoryRepositoryListAndFilter(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository[models.Book]("isbn")

	for i := 1; i <= 12; i++ {
		b := &models.Book{
			Title:     fmt.Sprintf("Book %02d", i),
			ISBN:      fmt.Sprintf("isbn-%d", i),
			AuthorIDs: []int64{int64(i % 3)},
			GenreIDs:  []int64{7},
		}
		if err := repo.Create(ctx, b); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	first, err := repo.List(ctx, Page{}, Filter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(first) != 10 || first[0].ID != 1 {
		t.Errorf("first page: len=%d first=%d", len(first), first[0].ID)
	}
	second, _ := repo.List(ctx, Page{Number: 2, Size: 10}, Filter{})
	if len(second) != 2 || second[0].ID != 11 {
		t.Errorf("second page: %+v", second)
	}

	var f Filter
	f.SetOverlaps("author_ids", []int64{1})
	byAuthor, _ := repo.List(ctx, Page{Size: 100}, f)
	if len(byAuthor) != 4 {
		t.Errorf("author filter returned %d rows, want 4", len(byAuthor))
	}

	var in Filter
	in.SetIn("id", []int64{2, 4, 99})
	picked, _ := repo.List(ctx, Page{Size: 100}, in)
	if len(picked) != 2 || picked[0].ID != 2 || picked[1].ID != 4 {
		t.Errorf("in filter returned %+v", picked)
	}

	var like Filter
	like.SetLike("title", "book 1")
	matched, _ := repo.List(ctx, Page{Size: 100}, like)
	if len(matched) != 3 {
		t.Errorf("like filter returned %d rows, want 3 (10, 11, 12)", len(matched))
	}

	var eq Filter
	eq.SetEq("isbn", "isbn-5")
	one, err := repo.FindOne(ctx, eq)
	if err != nil || one.ID != 5 {
		t.Errorf("FindOne = %+v, %v", one, err)
	}
	eq.SetEq("isbn", "nope")
	if _, err := repo.FindOne(ctx, eq); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFilterSettersSkipEmpty(t *testing.T) {
	var f Filter
	f.SetLike("email", "").SetOverlaps("genre_ids", nil).SetIn("language_id", nil)
	if f.Like != nil || f.Overlaps != nil || f.In != nil {
		t.Errorf("empty values should not create filters: %+v", f)
	}
}

func TestMapError(t *testing.T) {
	if !errors.Is(mapError(sql.ErrNoRows), ErrNotFound) {
		t.Error("sql.ErrNoRows should map to ErrNotFound")
	}
	if mapError(nil) != nil {
		t.Error("nil should stay nil")
	}
	other := errors.New("boom")
	if mapError(other) != other {
		t.Error("unknown errors should pass through")
	}
}

func TestMemoryReposUniqueUsers(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepos()
	if err := repos.Users.Create(ctx, &models.User{Email: "a@example.com", Username: "alice"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	err := repos.Users.Create(ctx, &models.User{Email: "b@example.com", Username: "Alice"})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected username conflict, got %v", err)
	}
}

func TestConfigDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: 5432, User: "u", Password: "p", Database: "libra", SSLMode: "disable"}
	if got := cfg.DSN(); got != "postgres://u:p@db:5432/libra?sslmode=disable" {
		t.Errorf("DSN = %s", got)
	}
}
