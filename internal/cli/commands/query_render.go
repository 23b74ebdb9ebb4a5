package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leapgate/internal/render"
	"github.com/leapstack-labs/leapgate/pkg/core"
	"gopkg.in/yaml.v3"
)

// renderRows prints normalized rows as a table, markdown or yaml.
func renderRows(w io.Writer, rs *core.ResultSet, format string) error {
	if rs.Command {
		_, _ = fmt.Fprintf(w, "%d rows affected\n", rs.RowsAffected)
		return nil
	}

	switch format {
	case "md", "markdown":
		return renderMarkdown(w, rs)
	case "yaml":
		return renderYAML(w, rs)
	default:
		return renderTable(w, rs)
	}
}

func newTable(rs *core.ResultSet) table.Writer {
	t := table.NewWriter()

	headerRow := make(table.Row, len(rs.Columns))
	for i, col := range rs.Columns {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, result := range rs.Rows {
		row := make(table.Row, len(rs.Columns))
		for i, col := range rs.Columns {
			row[i] = formatValue(result[col])
		}
		t.AppendRow(row)
	}
	return t
}

func renderTable(w io.Writer, rs *core.ResultSet) error {
	if rs.Len() == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := newTable(rs)
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", rs.Len())
	return nil
}

func renderMarkdown(w io.Writer, rs *core.ResultSet) error {
	if rs.Len() == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	_, err := fmt.Fprintln(w, newTable(rs).RenderMarkdown())
	return err
}

// renderYAML prints rows as a sequence of mappings in column order.
func renderYAML(w io.Writer, rs *core.ResultSet) error {
	doc := &yaml.Node{Kind: yaml.SequenceNode}
	for _, result := range rs.Rows {
		row := &yaml.Node{Kind: yaml.MappingNode}
		for _, col := range rs.Columns {
			var value yaml.Node
			if err := value.Encode(result[col]); err != nil {
				return fmt.Errorf("column %s: %w", col, err)
			}
			row.Content = append(row.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: col},
				&value)
		}
		doc.Content = append(doc.Content, row)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	s, err := render.Cell(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return s
}

// renderDocumentYAML prints v as block-style YAML. The value goes through
// its JSON encoding first so keys match the json tags and the HTTP API.
func renderDocumentYAML(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	blockStyle(&doc)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return err
	}
	return enc.Close()
}

// blockStyle clears the flow and quoting styles JSON input leaves behind.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
