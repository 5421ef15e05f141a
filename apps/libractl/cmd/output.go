package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/quatton/libra/pkg/lsdk"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// column renders one field of T in table output.
type column[T any] struct {
	header string
	value  func(T) string
}

func outputFormat(cmd *cobra.Command) string {
	cfg, err := GetConfig(cmd)
	if err != nil || cfg.Output == "" {
		return outputTable
	}
	return strings.ToLower(cfg.Output)
}

// encode writes v as json or yaml. It reports false for table output.
func encode(w io.Writer, format string, v any) (bool, error) {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return true, enc.Encode(v)
	case outputTable:
		return false, nil
	}
	return true, fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
}

func printTable[T any](w io.Writer, items []T, cols []column[T]) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = c.header
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, item := range items {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = c.value(item)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func printList[T any](cmd *cobra.Command, items []T, cols []column[T]) error {
	if items == nil {
		items = []T{}
	}
	if done, err := encode(cmd.OutOrStdout(), outputFormat(cmd), items); done || err != nil {
		return err
	}
	return printTable(cmd.OutOrStdout(), items, cols)
}

func printItem[T any](cmd *cobra.Command, item *T, cols []column[T]) error {
	if done, err := encode(cmd.OutOrStdout(), outputFormat(cmd), item); done || err != nil {
		return err
	}
	return printTable(cmd.OutOrStdout(), []T{*item}, cols)
}

func fmtID(v int64) string { return strconv.FormatInt(v, 10) }

func fmtIDs(v []int64) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = fmtID(n)
	}
	return strings.Join(parts, ",")
}

func optional(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

var userColumns = []column[lsdk.User]{
	{"ID", func(u lsdk.User) string { return fmtID(u.ID) }},
	{"USERNAME", func(u lsdk.User) string { return u.Username }},
	{"EMAIL", func(u lsdk.User) string { return u.Email }},
	{"NAME", func(u lsdk.User) string { return strings.TrimSpace(u.FirstName + " " + u.LastName) }},
	{"LIBRARIAN", func(u lsdk.User) string { return yesNo(u.IsLibrarian) }},
	{"ACTIVE", func(u lsdk.User) string { return yesNo(u.IsActive) }},
	{"JOINED", func(u lsdk.User) string { return u.DateOfJoining }},
}

var borrowedColumns = []column[lsdk.Borrowed]{
	{"ID", func(b lsdk.Borrowed) string { return fmtID(b.ID) }},
	{"COPY", func(b lsdk.Borrowed) string { return fmtID(b.CopyID) }},
	{"USER", func(b lsdk.Borrowed) string { return fmtID(b.UserID) }},
	{"ISSUED", func(b lsdk.Borrowed) string { return b.IssueDate }},
	{"DUE", func(b lsdk.Borrowed) string { return b.DueDate }},
	{"RETURNED", func(b lsdk.Borrowed) string { return optional(b.ReturnDate) }},
}
