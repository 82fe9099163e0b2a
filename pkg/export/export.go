package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/kilianp07/optimanage/core/dispatch"
)

// Row is the flat form of one ranked workflow.
type Row struct {
	Rank          int                `json:"rank"`
	Type          string             `json:"type"`
	MaterialID    string             `json:"material_id"`
	Score         float64            `json:"score"`
	Contributions map[string]float64 `json:"contributions,omitempty"`
}

// Rows flattens the ranking entries in rank order.
func Rows(r dispatch.Ranking) []Row {
	rows := make([]Row, len(r.Entries))
	for i, e := range r.Entries {
		rows[i] = Row{
			Rank:          i + 1,
			Type:          e.Instance.Type,
			MaterialID:    e.Instance.MaterialID,
			Score:         e.Score,
			Contributions: e.Contributions,
		}
	}
	return rows
}

// WriteJSON writes the ranking to w in JSON format.
func WriteJSON(w io.Writer, r dispatch.Ranking) error {
	doc := struct {
		ID      string   `json:"id"`
		Created string   `json:"created_at"`
		Entries []Row    `json:"entries"`
		Errors  []string `json:"errors,omitempty"`
	}{
		ID:      r.ID,
		Created: r.CreatedAt.Format(time.RFC3339),
		Entries: Rows(r),
		Errors:  r.ErrorMessages(),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteCSV writes one line per entry with a column per contributing
// objective.
func WriteCSV(w io.Writer, r dispatch.Ranking) error {
	objectives := contributors(r)
	cw := csv.NewWriter(w)
	header := append([]string{"rank", "type", "material_id", "score"}, objectives...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range Rows(r) {
		rec := []string{
			strconv.Itoa(row.Rank),
			row.Type,
			row.MaterialID,
			strconv.FormatFloat(row.Score, 'f', -1, 64),
		}
		for _, id := range objectives {
			rec = append(rec, strconv.FormatFloat(row.Contributions[id], 'f', -1, 64))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTable writes an aligned, human readable table followed by the
// objective errors of a partial ranking.
func WriteTable(w io.Writer, r dispatch.Ranking) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "RANK\tTYPE\tMATERIAL\tSCORE"); err != nil {
		return err
	}
	for _, row := range Rows(r) {
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%s\t%.4g\n", row.Rank, row.Type, row.MaterialID, row.Score); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, msg := range r.ErrorMessages() {
		if _, err := fmt.Fprintf(w, "error: %s\n", msg); err != nil {
			return err
		}
	}
	return nil
}

// Write dispatches on format: table, json or csv.
func Write(w io.Writer, format string, r dispatch.Ranking) error {
	switch format {
	case "", "table":
		return WriteTable(w, r)
	case "json":
		return WriteJSON(w, r)
	case "csv":
		return WriteCSV(w, r)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func contributors(r dispatch.Ranking) []string {
	seen := map[string]bool{}
	var ids []string
	for _, e := range r.Entries {
		for id := range e.Contributions {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Strings(ids)
	return ids
}
