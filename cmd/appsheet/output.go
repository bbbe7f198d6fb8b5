package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/goccy/go-yaml"
	"github.com/golang/glog"
	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/appsheetkit/appsheet_sdk_go/pkg/appsheet"
	"github.com/appsheetkit/appsheet_sdk_go/pkg/appsheet_sdk"
)

func (a *app) client() (*appsheet.Client, error) {
	client, _, mode, err := appsheet_sdk.NewFromEnv()
	if err != nil {
		return nil, err
	}
	glog.V(1).Infof("[appsheet] runtime mode %s", mode)
	return client, nil
}

// readRows decodes a YAML or JSON document holding either one row or a
// list of rows. "-" reads from in.
func readRows(path string, in io.Reader) ([]appsheet.Row, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(in)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("could not read %q: %w", path, err)
	}
	return parseRows(data)
}

func parseRows(data []byte) ([]appsheet.Row, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error decoding rows: %w", err)
	}
	switch v := doc.(type) {
	case nil:
		return nil, appsheet.ErrNoRows
	case map[string]any:
		return []appsheet.Row{toRow(v)}, nil
	case []any:
		rows := make([]appsheet.Row, 0, len(v))
		for i, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("row %d: expected a mapping, got %T", i, item)
			}
			rows = append(rows, toRow(m))
		}
		return rows, nil
	}
	return nil, fmt.Errorf("expected a row or a list of rows, got %T", doc)
}

func toRow(m map[string]any) appsheet.Row {
	row := make(appsheet.Row, len(m))
	for col, v := range m {
		row[col] = appsheet.Text(v)
	}
	return row
}

func useColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && os.Getenv("NO_COLOR") == "" && isatty.IsTerminal(f.Fd())
}

func paint(w io.Writer, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if useColor(w) {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// writeHeader prints a YAML comment line so the output stays parseable.
func writeHeader(w io.Writer, format string, args ...any) {
	if !useColor(w) {
		return
	}
	paint(w, color.FgCyan, color.Bold).Fprintf(w, "# "+format+"\n", args...)
}

func writeValue(w io.Writer, v any, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func rowYAML(row appsheet.Row) string {
	if row == nil {
		return ""
	}
	data, err := yaml.Marshal(row)
	if err != nil {
		return fmt.Sprint(row)
	}
	return string(data)
}

// lineDiff returns a +/- line diff of two texts.
func lineDiff(before, after string) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(a, b, false)
	return dmp.DiffCharsToLines(diffs, lines)
}

func writeDiff(w io.Writer, diffs []diffmatchpatch.Diff) {
	var buf bytes.Buffer
	add := paint(w, color.FgGreen)
	del := paint(w, color.FgRed)
	for _, d := range diffs {
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			line = strings.TrimSuffix(line, "\n")
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				add.Fprintf(&buf, "+ %s\n", line)
			case diffmatchpatch.DiffDelete:
				del.Fprintf(&buf, "- %s\n", line)
			default:
				fmt.Fprintf(&buf, "  %s\n", line)
			}
		}
	}
	w.Write(buf.Bytes())
}

func usageErr(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{cli.ErrUsage}, args...)...)
}
