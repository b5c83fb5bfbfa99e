package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
)

// emit writes v as indented JSON, or as a table when --output table and
// the command has a table layout.
func (a *app) emit(v any, table func(tw *tabwriter.Writer)) error {
	if a.output == "table" && table != nil {
		tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	}
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// kvTable renders key/value pairs, one per row.
func kvTable(pairs ...[2]string) func(tw *tabwriter.Writer) {
	return func(tw *tabwriter.Writer) {
		for _, p := range pairs {
			fmt.Fprintf(tw, "%s\t%s\n", p[0], p[1])
		}
	}
}

// field formats m[key] for a table cell.
func field(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return "-"
	}
	return fmt.Sprint(v)
}
