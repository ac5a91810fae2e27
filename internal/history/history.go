// Package history prints the report index kept by the research commands.
package history

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"researchkit/internal/reportdb"
	"researchkit/internal/tui"
)

func Run(ctx context.Context, out io.Writer, dbPath, kind string, limit int) error {
	rows, ok, err := load(ctx, out, dbPath, kind, limit)
	if err != nil || !ok {
		return err
	}

	fmt.Fprintf(out, "Showing %d most recent reports:\n\n", len(rows))
	for _, r := range rows {
		query := r.Query
		if query == "" {
			query = "-"
		}
		fmt.Fprintf(out, "ID: %s\n", r.ID)
		fmt.Fprintf(out, "Kind: %s\n", r.Kind)
		fmt.Fprintf(out, "Query: %s\n", query)
		fmt.Fprintf(out, "Items: %d\n", r.Items)
		fmt.Fprintf(out, "Path: %s\n", r.Path)
		fmt.Fprintf(out, "Date: %s\n", r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintln(out, strings.Repeat("-", 80))
	}
	return nil
}

// Browse opens the interactive report browser.
func Browse(ctx context.Context, out io.Writer, dbPath, kind string, limit int) error {
	rows, ok, err := load(ctx, out, dbPath, kind, limit)
	if err != nil || !ok {
		return err
	}
	return tui.Run(rows)
}

// load reports false after printing a hint when there is nothing to show.
func load(ctx context.Context, out io.Writer, dbPath, kind string, limit int) ([]reportdb.Report, bool, error) {
	if limit <= 0 {
		limit = 20
	}
	if !fileExists(dbPath) {
		fmt.Fprintf(out, "ResearchKit database not found at %s\n", dbPath)
		fmt.Fprintln(out, "Hint: run any research command once to create it, or set database.path in ~/.config/researchkit/config.yaml.")
		return nil, false, nil
	}

	db, err := reportdb.Open(dbPath)
	if err != nil {
		return nil, false, fmt.Errorf("failed opening the ResearchKit database: %w", err)
	}
	defer db.Close()

	rows, err := reportdb.List(ctx, db, kind, limit)
	if err != nil {
		return nil, false, fmt.Errorf("query failed while reading from the ResearchKit database: %w", err)
	}

	if len(rows) == 0 {
		if kind != "" {
			fmt.Fprintf(out, "No %s reports found.\n", kind)
		} else {
			fmt.Fprintln(out, "No reports found.")
		}
		return nil, false, nil
	}
	return rows, true, nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
