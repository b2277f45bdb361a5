// Package output renders command results for the terminal or for scripts.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/authmatch/pkg/errors"
)

// Format selects how results are written.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	// FormatWide is a table that includes detail columns.
	FormatWide Format = "wide"
)

// Align is a table column alignment.
type Align int

const (
	AlignDefault Align = iota
	AlignLeft
	AlignCenter
	AlignRight
)

var twAligns = map[Align]tw.Align{
	AlignDefault: tw.Skip,
	AlignLeft:    tw.AlignLeft,
	AlignCenter:  tw.AlignCenter,
	AlignRight:   tw.AlignRight,
}

// Formatter writes data in one output format.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// FormatterFunc adapts a function to Formatter.
type FormatterFunc func(io.Writer, any) error

// Format calls f.
func (f FormatterFunc) Format(w io.Writer, data any) error {
	return f(w, data)
}

// NewFormatter returns the formatter for format. Unknown formats get a table.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return FormatterFunc(writeJSON)
	case FormatYAML:
		return FormatterFunc(writeYAML)
	default:
		return &TableFormatter{Wide: format == FormatWide}
	}
}

func writeJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func writeYAML(w io.Writer, data any) error {
	out, err := yaml.MarshalWithOptions(data, yaml.Indent(2), yaml.IndentSequence(false))
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// Data is a table ready for rendering.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align
}

// TableFormatter renders Data with tablewriter. Structs are shown as a
// property table; anything else falls back to JSON.
type TableFormatter struct {
	Wide bool
}

// Format implements Formatter.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	switch v := data.(type) {
	case Data:
		return renderTable(w, v)
	case *Data:
		return renderTable(w, *v)
	}
	if d, ok := structTable(data); ok {
		return renderTable(w, d)
	}
	return writeJSON(w, data)
}

func renderTable(w io.Writer, data Data) error {
	var config tablewriter.Config
	if len(data.ColumnAlignment) > 0 {
		aligns := make([]tw.Align, len(data.ColumnAlignment))
		for i, a := range data.ColumnAlignment {
			aligns[i] = twAligns[a]
		}
		config.Header.Alignment = tw.CellAlignment{PerColumn: aligns}
		config.Row.Alignment = tw.CellAlignment{PerColumn: aligns}
	}
	table := tablewriter.NewTable(w, tablewriter.WithConfig(config))

	if len(data.Headers) > 0 {
		table.Header(cells(data.Headers)...)
	}
	for _, row := range data.Rows {
		if err := table.Append(cells(row)...); err != nil {
			return err
		}
	}
	return table.Render()
}

func cells(row []string) []any {
	out := make([]any, len(row))
	for i, c := range row {
		out[i] = c
	}
	return out
}

// structTable lists a struct as property rows, or a slice of structs as
// one row per element.
func structTable(data any) (Data, bool) {
	v := reflect.Indirect(reflect.ValueOf(data))
	switch {
	case v.Kind() == reflect.Struct:
		d := Data{Headers: []string{"Property", "Value"}}
		labels, idx := structFields(v.Type())
		for i, label := range labels {
			d.Rows = append(d.Rows, []string{label, fmt.Sprint(v.Field(idx[i]).Interface())})
		}
		return d, true
	case v.Kind() == reflect.Slice && v.Len() > 0 && v.Type().Elem().Kind() == reflect.Struct:
		labels, idx := structFields(v.Type().Elem())
		d := Data{Headers: labels}
		for i := 0; i < v.Len(); i++ {
			row := make([]string, len(idx))
			for j, f := range idx {
				row[j] = fmt.Sprint(v.Index(i).Field(f).Interface())
			}
			d.Rows = append(d.Rows, row)
		}
		return d, true
	}
	return Data{}, false
}

func structFields(t reflect.Type) (labels []string, idx []int) {
	for i := 0; i < t.NumField(); i++ {
		if label, ok := fieldLabel(t.Field(i)); ok {
			labels = append(labels, label)
			idx = append(idx, i)
		}
	}
	return labels, idx
}

// fieldLabel titles the json name of field ("audit_failures" becomes
// "Audit Failures"). Unexported and json:"-" fields are skipped.
func fieldLabel(field reflect.StructField) (string, bool) {
	if !field.IsExported() {
		return "", false
	}
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	switch name {
	case "-":
		return "", false
	case "":
		return field.Name, true
	}
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " ")), true
}

// DetectFormat returns explicit if set, otherwise a table for terminals
// and JSON for pipes.
func DetectFormat(explicit string) Format {
	if explicit != "" {
		return Format(strings.ToLower(explicit))
	}
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return FormatTable
	}
	return FormatJSON
}

// ParseFormat validates a --format value. The empty string means detect.
func ParseFormat(s string) (Format, error) {
	format := Format(strings.ToLower(s))
	switch format {
	case FormatTable, FormatJSON, FormatYAML, FormatWide, "":
		return format, nil
	}
	return "", errors.NewValidationError("format", s, "must be one of: table, json, yaml, wide")
}
