package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/kilianp07/optimanage/core/record"
	"github.com/kilianp07/optimanage/core/store"
	"github.com/kilianp07/optimanage/objectives"
)

var (
	toyIn       string
	toyOut      string
	toyProperty string
	toyIDField  string
)

var toyCmd = &cobra.Command{
	Use:   "toy",
	Short: "Derive a toy dataset by hiding a property on every other material",
	Long: "Reads a JSON or YAML dataset and removes the property from every record\n" +
		"whose numeric id suffix is even (mp-1234 -> 1234), leaving them as\n" +
		"candidates for the workflows that compute it.",
	RunE: runToy,
}

func init() {
	toyCmd.Flags().StringVar(&toyIn, "in", "", "input dataset (json or yaml)")
	toyCmd.Flags().StringVar(&toyOut, "out", "", "output dataset (json or yaml)")
	toyCmd.Flags().StringVar(&toyProperty, "property", objectives.PropBulkModulus, "property to remove")
	toyCmd.Flags().StringVar(&toyIDField, "id-field", record.DefaultIDField, "document identifier field")
	_ = toyCmd.MarkFlagRequired("in")
	_ = toyCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(toyCmd)
}

func runToy(cmd *cobra.Command, args []string) error {
	src, err := store.LoadFile(toyIn, toyIDField)
	if err != nil {
		return err
	}
	recs, removed := deriveToy(src.All(), toyProperty)
	if err := store.WriteFile(toyOut, toyIDField, recs); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "removed %s from %d of %d records\n", toyProperty, removed, len(recs))
	return err
}

// deriveToy removes property from records with an even numeric id suffix
// and reports how many records lost it.
func deriveToy(recs []record.Record, property string) ([]record.Record, int) {
	out := make([]record.Record, len(recs))
	removed := 0
	for i, r := range recs {
		out[i] = r
		n, ok := idSuffix(r.ID())
		if !ok || n%2 != 0 || !r.Has(property) {
			continue
		}
		out[i] = r.Without(property)
		removed++
	}
	return out, removed
}

func idSuffix(id string) (int, bool) {
	i := strings.LastIndexFunc(id, func(r rune) bool { return !unicode.IsDigit(r) })
	digits := id[i+1:]
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	return n, err == nil
}
