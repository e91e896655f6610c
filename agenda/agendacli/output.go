package agendacli

import (
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/table"
	"github.com/jedib0t/go-pretty/text"

	"github.com/Termicotra/agendamiento/agenda/client"
	"github.com/Termicotra/agendamiento/agenda/gate"
	"github.com/Termicotra/agendamiento/agenda/resources"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

// columns returns the keys of records, idField first and the rest sorted.
func columns(records []client.Record, idField string) []string {
	seen := map[string]bool{}
	var cols []string
	for _, rec := range records {
		for k := range rec {
			if !seen[k] && k != idField {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)

	for _, rec := range records {
		if _, ok := rec[idField]; ok {
			return append([]string{idField}, cols...)
		}
	}
	return cols
}

func renderRecords(w io.Writer, records []client.Record, idField string) {
	cols := columns(records, idField)
	t := newTable(w)

	header := make(table.Row, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	t.AppendHeader(header)

	for _, rec := range records {
		row := make(table.Row, len(cols))
		for i, c := range cols {
			row[i] = resources.Scalar(rec[c])
		}
		t.AppendRow(row)
	}
	t.Render()
}

func renderRecord(w io.Writer, rec client.Record, field, value string) {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := newTable(w)
	t.AppendHeader(table.Row{field, value})
	for _, k := range keys {
		t.AppendRow(table.Row{k, resources.Scalar(rec[k])})
	}
	t.Render()
}

func renderList(w io.Writer, header string, items []string) {
	t := newTable(w)
	t.AppendHeader(table.Row{header})
	for _, item := range items {
		t.AppendRow(table.Row{item})
	}
	t.Render()
}

func warn(s string) string {
	return text.Colors{text.FgYellow}.Sprint(s)
}

func success(s string) string {
	return text.Colors{text.FgGreen}.Sprint(s)
}

func renderMenu(w io.Writer, items []gate.MenuItem, section, command string) {
	t := newTable(w)
	t.AppendHeader(table.Row{section, command})
	for _, item := range items {
		t.AppendRow(table.Row{item.Label, item.Command})
	}
	t.Render()
}
