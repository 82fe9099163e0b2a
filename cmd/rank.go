package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/optimanage/app"
	"github.com/kilianp07/optimanage/config"
	"github.com/kilianp07/optimanage/core/publish"
	"github.com/kilianp07/optimanage/infra/logger"
	"github.com/kilianp07/optimanage/pkg/export"
)

var (
	rankN       int
	rankFormat  string
	rankPublish bool
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank the N best workflows once and print them",
	RunE:  runRank,
}

func init() {
	rankCmd.Flags().IntVarP(&rankN, "count", "n", 10, "number of workflows to rank")
	rankCmd.Flags().StringVarP(&rankFormat, "format", "f", "table", "output format: table, json or csv")
	rankCmd.Flags().BoolVar(&rankPublish, "publish", false, "publish the ranking over MQTT when configured")
	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	var opts []app.Option
	if !rankPublish {
		opts = append(opts, app.WithPublisher(publish.NopPublisher{}))
	}
	svc, err := app.New(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("rank-command").Errorf("service close: %v", err)
		}
	}()
	r, err := svc.RankOnce(ctx, rankN)
	if err != nil {
		return err
	}
	return export.Write(cmd.OutOrStdout(), rankFormat, r)
}
