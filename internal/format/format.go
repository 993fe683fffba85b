// Package format renders the CLI tables (run list, summary leaderboard) as
// fixed-width ASCII or GitHub-flavoured Markdown, plus the metric value
// formatting shared with CSV output.
package format

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Mode selects the rendering of a table.
type Mode int

const (
	ASCII    Mode = iota // box-drawing terminal table
	Markdown             // pipe-delimited Markdown table
)

// ColumnAlign is the horizontal alignment of one column.
type ColumnAlign int

const (
	AlignDefault ColumnAlign = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// ColumnConfig aligns one column; metric columns render right-aligned.
type ColumnConfig struct {
	Number int // 1-based column index
	Align  ColumnAlign
}

// TableBuilder accumulates header and rows, then renders once via String.
type TableBuilder interface {
	Header(cols ...string)
	// Row appends a data row. Values are stringified via fmt.Sprint.
	Row(vals ...any)
	Columns(cfgs ...ColumnConfig)
	String() string
}

// NewTable returns a TableBuilder rendering in the given Mode.
func NewTable(m Mode) TableBuilder {
	w := table.NewWriter()
	if m == ASCII {
		w.SetStyle(table.StyleLight)
	}
	return &prettyTable{writer: w, mode: m}
}

type prettyTable struct {
	writer table.Writer
	mode   Mode
}

func (t *prettyTable) Header(cols ...string) {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	t.writer.AppendHeader(row)
}

func (t *prettyTable) Row(vals ...any) {
	row := make(table.Row, len(vals))
	copy(row, vals)
	t.writer.AppendRow(row)
}

func (t *prettyTable) Columns(cfgs ...ColumnConfig) {
	configs := make([]table.ColumnConfig, len(cfgs))
	for i, c := range cfgs {
		configs[i] = table.ColumnConfig{
			Number: c.Number,
			Align:  textAlign(c.Align),
		}
	}
	t.writer.SetColumnConfigs(configs)
}

func (t *prettyTable) String() string {
	if t.mode == Markdown {
		return t.writer.RenderMarkdown()
	}
	return t.writer.Render()
}

func textAlign(a ColumnAlign) text.Align {
	switch a {
	case AlignLeft:
		return text.AlignLeft
	case AlignCenter:
		return text.AlignCenter
	case AlignRight:
		return text.AlignRight
	default:
		return text.AlignDefault
	}
}
