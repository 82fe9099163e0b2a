package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/optimanage/app"
	"github.com/kilianp07/optimanage/config"
	"github.com/kilianp07/optimanage/core/dispatch"
	"github.com/kilianp07/optimanage/core/objective"
	"github.com/kilianp07/optimanage/core/publish"
	"github.com/kilianp07/optimanage/infra/logger"
)

var partitionFormat string

var partitionCmd = &cobra.Command{
	Use:   "partition",
	Short: "Show the training and candidate set sizes of each objective",
	RunE:  runPartition,
}

func init() {
	partitionCmd.Flags().StringVarP(&partitionFormat, "format", "f", "table", "output format: table or json")
	rootCmd.AddCommand(partitionCmd)
}

// partitionSummary is one line of the partition report.
type partitionSummary struct {
	Objective  string   `json:"objective"`
	Weight     float64  `json:"weight"`
	Training   int      `json:"training"`
	Candidates int      `json:"candidates"`
	Properties []string `json:"properties"`
}

func runPartition(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, err := app.New(ctx, cfg, app.WithPublisher(publish.NopPublisher{}))
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("partition-command").Errorf("service close: %v", err)
		}
	}()
	if _, err := svc.Dispatcher.Update(ctx); err != nil {
		return err
	}
	return writePartitions(cmd.OutOrStdout(), partitionFormat, summarize(svc.Dispatcher))
}

func summarize(d *dispatch.Dispatcher) []partitionSummary {
	var out []partitionSummary
	for _, obj := range d.Objectives() {
		id := obj.ID()
		w, _ := d.Weight(id)
		p, _ := d.Partition(id)
		out = append(out, partitionSummary{
			Objective:  id,
			Weight:     w,
			Training:   len(p.Training),
			Candidates: len(p.Candidates),
			Properties: objective.RequiredProperties(obj),
		})
	}
	return out
}

func writePartitions(w io.Writer, format string, rows []partitionSummary) error {
	switch format {
	case "", "table":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		if _, err := fmt.Fprintln(tw, "OBJECTIVE\tWEIGHT\tTRAINING\tCANDIDATES\tPROPERTIES"); err != nil {
			return err
		}
		for _, r := range rows {
			if _, err := fmt.Fprintf(tw, "%s\t%g\t%d\t%d\t%s\n", r.Objective, r.Weight, r.Training, r.Candidates, strings.Join(r.Properties, ",")); err != nil {
				return err
			}
		}
		return tw.Flush()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
