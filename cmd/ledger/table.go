package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/the-ledger-must-balance/internal/cli"
)

// table writes aligned rows under a styled header.
type table struct {
	w    *tabwriter.Writer
	cols int
}

func newTable(out io.Writer, headers ...string) (*table, error) {
	t := &table{w: tabwriter.NewWriter(out, 0, 0, 2, ' ', 0), cols: len(headers)}

	styled := make([]string, len(headers))
	rules := make([]string, len(headers))
	for i, h := range headers {
		styled[i] = cli.HeaderStyle.Render(h)
		rules[i] = strings.Repeat("─", len(h)+2)
	}
	if _, err := fmt.Fprintln(t.w, strings.Join(styled, "\t")); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := fmt.Fprintln(t.w, strings.Join(rules, "\t")); err != nil {
		return nil, fmt.Errorf("failed to write separator: %w", err)
	}
	return t, nil
}

func (t *table) row(cells ...string) error {
	if len(cells) != t.cols {
		return fmt.Errorf("table row has %d cells, want %d", len(cells), t.cols)
	}
	if _, err := fmt.Fprintln(t.w, strings.Join(cells, "\t")); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	return nil
}

func (t *table) flush() error {
	return t.w.Flush()
}
