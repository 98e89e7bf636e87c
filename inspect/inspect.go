// Package inspect renders diagnostic reports of a state graph.
package inspect

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/oklog/ulid/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/odvcencio/livestate/state"
)

// Collect snapshots every non-nil state in order.
func Collect(states ...state.Describer) []state.Info {
	infos := make([]state.Info, 0, len(states))
	for _, s := range states {
		if s == nil {
			continue
		}
		infos = append(infos, s.Describe())
	}
	return infos
}

var columns = []string{"STATE", "KIND", "UPSTREAM", "LIFECYCLES", "STATUS", "VALUE"}

func rows(infos []state.Info) [][]string {
	names := make(map[ulid.ULID]string, len(infos))
	for _, info := range infos {
		names[info.ID] = info.Name()
	}
	out := make([][]string, 0, len(infos))
	for _, info := range infos {
		upstream := make([]string, 0, len(info.Upstream))
		for _, id := range info.Upstream {
			if name, ok := names[id]; ok {
				upstream = append(upstream, name)
			} else {
				upstream = append(upstream, id.String())
			}
		}
		status := "active"
		if info.TornDown {
			status = "torn-down"
		}
		up := "-"
		if len(upstream) > 0 {
			up = strings.Join(upstream, ", ")
		}
		out = append(out, []string{
			info.Name(),
			info.Kind.String(),
			up,
			fmt.Sprint(info.Lifecycles),
			status,
			FormatValue(info.Value),
		})
	}
	return out
}

// FormatValue renders a state value for reports.
func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return fmt.Sprintf("%q", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// WriteText writes an aligned table. Column widths are measured in terminal
// cells so labels with wide runes stay aligned.
func WriteText(w io.Writer, infos []state.Info) error {
	table := append([][]string{columns}, rows(infos)...)
	widths := make([]int, len(columns))
	for _, row := range table {
		for i, cell := range row {
			if n := runewidth.StringWidth(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}
	for _, row := range table {
		var line strings.Builder
		for i, cell := range row {
			if i == len(row)-1 {
				line.WriteString(cell)
				break
			}
			line.WriteString(runewidth.FillRight(cell, widths[i]))
			line.WriteString("  ")
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(line.String(), " ")); err != nil {
			return err
		}
	}
	return nil
}

// WriteMarkdown writes the report as a GitHub-flavored markdown table.
func WriteMarkdown(w io.Writer, infos []state.Info) error {
	var buf bytes.Buffer
	buf.WriteString("| " + strings.Join(columns, " | ") + " |\n")
	buf.WriteString("|" + strings.Repeat(" --- |", len(columns)) + "\n")
	for _, row := range rows(infos) {
		escaped := make([]string, len(row))
		for i, cell := range row {
			escaped[i] = strings.ReplaceAll(cell, "|", `\|`)
		}
		buf.WriteString("| " + strings.Join(escaped, " | ") + " |\n")
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteHTML renders the markdown report to HTML.
func WriteHTML(w io.Writer, infos []state.Info) error {
	var md bytes.Buffer
	if err := WriteMarkdown(&md, infos); err != nil {
		return err
	}
	renderer := goldmark.New(goldmark.WithExtensions(extension.Table))
	if err := renderer.Convert(md.Bytes(), w); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}
