package main

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

var (
	headerColor = color.New(color.Bold, color.FgCyan)
	ruleColor   = color.New(color.FgHiBlack)
	keyColor    = color.New(color.Bold)
	pathColor   = color.New(color.FgGreen)
)

// table renders aligned columns with a colored header.
type table struct {
	headers []string
	rows    [][]string
}

func newTable(headers ...string) *table {
	return &table{headers: headers}
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) render(w io.Writer) {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], utf8.RuneCountInString(cell))
			}
		}
	}

	for i, h := range t.headers {
		headerColor.Fprint(w, pad(h, widths[i], i == len(t.headers)-1))
	}
	fmt.Fprintln(w)
	for i, width := range widths {
		ruleColor.Fprint(w, pad(strings.Repeat("─", width), width, i == len(widths)-1))
	}
	fmt.Fprintln(w)
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				fmt.Fprint(w, pad(cell, widths[i], i == len(row)-1))
			}
		}
		fmt.Fprintln(w)
	}
}

// pad right-pads s to width and appends the column gap, except after the
// last column.
func pad(s string, width int, last bool) string {
	if last {
		return s
	}
	if n := width - utf8.RuneCountInString(s); n > 0 {
		s += strings.Repeat(" ", n)
	}
	return s + "  "
}

// keyValue prints one "key: value" line with the key in bold.
func keyValue(w io.Writer, key string, value any) {
	keyColor.Fprintf(w, "%-14s", key+":")
	fmt.Fprintf(w, " %v\n", value)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
