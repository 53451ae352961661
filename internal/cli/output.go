package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"cassa/internal/core"
)

// table writes tab-separated rows aligned in columns.
type table struct {
	tw *tabwriter.Writer
}

func newTable(w io.Writer, headers ...string) *table {
	t := &table{tw: tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)}
	t.row(headersAny(headers)...)
	return t
}

func headersAny(h []string) []any {
	out := make([]any, len(h))
	for i, s := range h {
		out[i] = s
	}
	return out
}

func (t *table) row(cols ...any) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(t.tw, strings.Join(parts, "\t"))
}

func (t *table) flush() error {
	return t.tw.Flush()
}

// money renders an amount rounded once, for display.
func money(f float64) string {
	return core.FormatAmount(core.Round2(f))
}

func signed(m core.Movement) string {
	if m.Kind == core.Outflow {
		return "-" + money(m.Amount)
	}
	return "+" + money(m.Amount)
}

func date(m core.Market) string {
	if m.Date.IsZero() {
		return "-"
	}
	return m.Date.Format("2006-01-02")
}
