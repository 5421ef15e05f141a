package lsdk

import (
	"context"
	"strings"
)

// maxPages bounds ListAll against a server that never returns a short page.
const maxPages = 1000

// ListAll walks pages of list until a page comes back shorter than pageSize.
func ListAll[T any](ctx context.Context, pageSize int, list func(context.Context, *ListOptions) ([]T, error), params map[string]any) ([]T, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	var all []T
	for page := 1; page <= maxPages; page++ {
		items, err := list(ctx, &ListOptions{Page: page, PageSize: pageSize, Params: params})
		if err != nil {
			return all, err
		}
		all = append(all, items...)
		if len(items) < pageSize {
			break
		}
	}
	return all, nil
}

// Search keeps the items where any of fields contains query, ignoring case.
// An empty query returns items unchanged.
func Search[T any](items []T, query string, fields func(T) []string) []T {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}
	var out []T
	for _, item := range items {
		for _, f := range fields(item) {
			if strings.Contains(strings.ToLower(f), q) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}
