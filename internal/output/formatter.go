// Package output renders analysis results as text, JSON, Markdown or TOON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	toon "github.com/toon-format/toon-go"
)

// Format represents an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatTOON     Format = "toon"
)

// ParseFormat converts a string to Format, defaulting to text.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "markdown", "md":
		return FormatMarkdown
	case "toon":
		return FormatTOON
	default:
		return FormatText
	}
}

// Renderable defines data that can render itself in multiple formats.
type Renderable interface {
	RenderText(w io.Writer, colored bool) error
	RenderMarkdown(w io.Writer) error
	// RenderData returns the underlying data for JSON and TOON serialization.
	RenderData() any
}

// Formatter writes Renderables in one format to one destination.
type Formatter struct {
	format  Format
	writer  io.Writer
	file    *os.File
	colored bool
}

// NewFormatter creates a formatter writing to the file at output, or stdout
// when output is empty. Color is disabled for file output.
func NewFormatter(format Format, output string, colored bool) (*Formatter, error) {
	if output == "" {
		return NewWriterFormatter(format, os.Stdout, colored), nil
	}
	f, err := os.Create(output)
	if err != nil {
		return nil, err
	}
	return &Formatter{format: format, writer: f, file: f}, nil
}

// NewWriterFormatter creates a formatter over an arbitrary writer.
func NewWriterFormatter(format Format, w io.Writer, colored bool) *Formatter {
	return &Formatter{format: format, writer: w, colored: colored}
}

// Close closes the output file, if any.
func (f *Formatter) Close() error {
	if f.file != nil {
		return f.file.Close()
	}
	return nil
}

// Output writes r in the configured format.
func (f *Formatter) Output(r Renderable) error {
	switch f.format {
	case FormatJSON:
		enc := json.NewEncoder(f.writer)
		enc.SetIndent("", "  ")
		return enc.Encode(r.RenderData())
	case FormatTOON:
		out, err := toon.Marshal(r.RenderData(), toon.WithIndent(2))
		if err != nil {
			return fmt.Errorf("encoding toon: %w", err)
		}
		_, err = fmt.Fprintf(f.writer, "%s\n", out)
		return err
	case FormatMarkdown:
		return r.RenderMarkdown(f.writer)
	default:
		return r.RenderText(f.writer, f.colored)
	}
}

// Table is a Renderable table. Data, when set, replaces the rows in JSON
// and TOON output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Data    any
}

// NewTable creates a table that wraps structured data for serialization.
func NewTable(title string, headers []string, rows [][]string, data any) *Table {
	return &Table{Title: title, Headers: headers, Rows: rows, Data: data}
}

func (t *Table) RenderData() any {
	if t.Data != nil {
		return t.Data
	}
	result := make([]map[string]string, len(t.Rows))
	for i, row := range t.Rows {
		m := make(map[string]string, len(t.Headers))
		for j, h := range t.Headers {
			if j < len(row) {
				m[h] = row[j]
			}
		}
		result[i] = m
	}
	return result
}

// newTextTable returns a borderless, left-aligned table.
func newTextTable(w io.Writer) *tablewriter.Table {
	left := tw.CellAlignment{Global: tw.AlignLeft}
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment:  left,
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
			},
			Row: tw.CellConfig{Alignment: left},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.Border{Left: tw.Off, Right: tw.Off, Top: tw.Off, Bottom: tw.Off},
			Settings: tw.Settings{
				Separators: tw.Separators{BetweenColumns: tw.Off},
			},
		}),
	)
}

func (t *Table) RenderText(w io.Writer, colored bool) error {
	if t.Title != "" {
		heading(w, t.Title, "-", colored, color.Bold)
	}
	table := newTextTable(w)
	table.Header(t.Headers)
	for _, row := range t.Rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return nil
}

func (t *Table) RenderMarkdown(w io.Writer) error {
	if t.Title != "" {
		fmt.Fprintf(w, "## %s\n\n", t.Title)
	}
	writeMarkdownRow(w, t.Headers)
	seps := make([]string, len(t.Headers))
	for i := range seps {
		seps[i] = "---"
	}
	writeMarkdownRow(w, seps)
	for _, row := range t.Rows {
		writeMarkdownRow(w, row)
	}
	fmt.Fprintln(w)
	return nil
}

func writeMarkdownRow(w io.Writer, cells []string) {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	fmt.Fprintf(w, "| %s |\n", strings.Join(escaped, " | "))
}

// Field is one labelled value of a Fields block.
type Field struct {
	Label string
	Value string
}

// Fields is a Renderable list of labelled values shown as aligned lines in
// text and a two-column table in Markdown. Data is what JSON and TOON see.
type Fields struct {
	Title  string
	Fields []Field
	// Note is an optional closing line.
	Note string
	Data any
}

func (f *Fields) RenderData() any {
	if f.Data != nil {
		return f.Data
	}
	m := make(map[string]string, len(f.Fields))
	for _, field := range f.Fields {
		m[field.Label] = field.Value
	}
	return m
}

func (f *Fields) RenderText(w io.Writer, colored bool) error {
	if f.Title != "" {
		heading(w, f.Title, "=", colored, color.Bold, color.FgCyan)
	}
	width := 0
	for _, field := range f.Fields {
		width = max(width, len(field.Label)+1)
	}
	for _, field := range f.Fields {
		fmt.Fprintf(w, "%-*s %s\n", width, field.Label+":", field.Value)
	}
	if f.Note != "" {
		fmt.Fprintf(w, "\n%s\n", f.Note)
	}
	fmt.Fprintln(w)
	return nil
}

func (f *Fields) RenderMarkdown(w io.Writer) error {
	if f.Title != "" {
		fmt.Fprintf(w, "# %s\n\n", f.Title)
	}
	writeMarkdownRow(w, []string{"Metric", "Value"})
	writeMarkdownRow(w, []string{"---", "---"})
	for _, field := range f.Fields {
		writeMarkdownRow(w, []string{field.Label, field.Value})
	}
	fmt.Fprintln(w)
	if f.Note != "" {
		fmt.Fprintf(w, "%s\n\n", f.Note)
	}
	return nil
}

// Blocks renders several Renderables in sequence. Its data is the Data
// field alone.
type Blocks struct {
	Items []Renderable
	Data  any
}

func (b *Blocks) RenderData() any {
	return b.Data
}

func (b *Blocks) RenderText(w io.Writer, colored bool) error {
	for _, r := range b.Items {
		if err := r.RenderText(w, colored); err != nil {
			return err
		}
	}
	return nil
}

func (b *Blocks) RenderMarkdown(w io.Writer) error {
	for _, r := range b.Items {
		if err := r.RenderMarkdown(w); err != nil {
			return err
		}
	}
	return nil
}

func heading(w io.Writer, title, underline string, colored bool, attrs ...color.Attribute) {
	if colored {
		color.New(attrs...).Fprintln(w, title)
	} else {
		fmt.Fprintln(w, title)
	}
	fmt.Fprintln(w, strings.Repeat(underline, len(title)))
	fmt.Fprintln(w)
}

// ConfidenceColor colors text by confidence tier or safety tier.
func ConfidenceColor(tier, text string) string {
	switch strings.ToLower(tier) {
	case "high", "safe":
		return color.GreenString(text)
	case "medium", "review-needed":
		return color.YellowString(text)
	case "low", "risky":
		return color.RedString(text)
	default:
		return text
	}
}
