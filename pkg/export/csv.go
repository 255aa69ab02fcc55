// Package export turns a crawl log into a flat CSV table.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"sort"
	"strconv"

	"xscraper/pkg/crawlog"
	"xscraper/pkg/errors"
	"xscraper/pkg/xapi"
)

// Stats summarizes one export run.
type Stats struct {
	Rows    int // data rows written
	Columns int // header width
	Skipped int // malformed input lines
}

// FromLog reads every post record in the log at path and writes a CSV table
// to out. Non-post records are dropped. Each row gains an x_link column
// computed from the post id; enriched posts contribute author_data_*
// columns. The header is the lexicographically sorted union of all
// flattened field names, so the same log always produces the same table.
// A log with zero post records is an empty_input error.
func FromLog(path string, out io.Writer) (Stats, error) {
	records, skipped, err := crawlog.ReadPosts(path)
	if err != nil {
		return Stats{Skipped: skipped}, err
	}
	if len(records) == 0 {
		return Stats{Skipped: skipped}, errors.Newf(errors.KindEmptyInput, "no post records in %s", path)
	}

	rows := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		row := make(map[string]string)
		flatten("", rec.Data, row)
		if rec.AuthorData != nil {
			flatten("author_data", rec.AuthorData, row)
		}
		if id := rec.Data.ID(); id != "" {
			row["x_link"] = xapi.PostURL(id)
		}
		rows = append(rows, row)
	}

	header := headerFor(rows)

	w := csv.NewWriter(out)
	if err := w.Write(header); err != nil {
		return Stats{Skipped: skipped}, err
	}
	for _, row := range rows {
		line := make([]string, len(header))
		for i, col := range header {
			line[i] = row[col]
		}
		if err := w.Write(line); err != nil {
			return Stats{Skipped: skipped}, err
		}
	}
	w.Flush()

	return Stats{Rows: len(rows), Columns: len(header), Skipped: skipped}, w.Error()
}

// headerFor computes the sorted union of column names across all rows.
func headerFor(rows []map[string]string) []string {
	seen := make(map[string]bool)
	var header []string
	for _, row := range rows {
		for col := range row {
			if !seen[col] {
				seen[col] = true
				header = append(header, col)
			}
		}
	}
	sort.Strings(header)
	return header
}

// flatten walks nested mappings, joining key paths with "_". Scalars are
// rendered directly; anything else (arrays, mostly) falls back to its JSON
// form so no field is ever lost in the table.
func flatten(prefix string, m map[string]interface{}, into map[string]string) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "_" + k
		}

		switch val := v.(type) {
		case map[string]interface{}:
			flatten(key, val, into)
		case string:
			into[key] = val
		case float64:
			into[key] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			into[key] = strconv.FormatBool(val)
		case nil:
			into[key] = ""
		default:
			raw, err := json.Marshal(val)
			if err != nil {
				into[key] = ""
				continue
			}
			into[key] = string(raw)
		}
	}
}
