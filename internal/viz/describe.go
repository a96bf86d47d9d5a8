package viz

import (
	"html"
	"strings"
)

// DefaultName is used for records whose row has no name-like column
const DefaultName = "Site Data"

// ChooseName picks a record name from a row. Precedence: an exact "title"
// column, then case-insensitive "title", "name", any column containing
// "title", any column containing "name". Empty cells never qualify.
func ChooseName(columns []string, row map[string]string) string {
	if v := row["title"]; v != "" {
		return v
	}

	best, rank := "", 5
	for _, key := range columns {
		if row[key] == "" {
			continue
		}
		lower := strings.ToLower(key)
		r := 5
		switch {
		case lower == "title":
			r = 1
		case lower == "name":
			r = 2
		case strings.Contains(lower, "title"):
			r = 3
		case strings.Contains(lower, "name"):
			r = 4
		}
		if r < rank {
			best, rank = key, r
			if r == 1 {
				break
			}
		}
	}
	if rank == 5 {
		return DefaultName
	}
	return row[best]
}

// TableDescriber renders a row as an HTML table. With Fields set only the
// listed columns are shown, under their display labels. Columns whose name
// starts with "__" are hidden.
type TableDescriber struct {
	Fields map[string]string
}

// Describe implements Describer
func (d TableDescriber) Describe(columns []string, row map[string]string) string {
	if row == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(`<table class="info-table">`)
	for _, key := range columns {
		value, ok := row[key]
		if !ok || strings.HasPrefix(key, "__") {
			continue
		}
		label := key
		if d.Fields != nil {
			if label, ok = d.Fields[key]; !ok {
				continue
			}
		}
		b.WriteString("<tr><td>")
		b.WriteString(html.EscapeString(label))
		b.WriteString("</td><td>")
		b.WriteString(html.EscapeString(value))
		b.WriteString("</td></tr>")
	}
	b.WriteString("</table>")
	return b.String()
}
