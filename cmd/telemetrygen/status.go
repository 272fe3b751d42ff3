package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/star/telemetrygen/internal/api"
	"github.com/star/telemetrygen/internal/sensor"
	"github.com/star/telemetrygen/internal/status"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the run reported by a status server",
	RunE:  runStatus,
}

var sensorsCmd = &cobra.Command{
	Use:   "sensors",
	Short: "List the sensor channel catalogue",
	Args:  cobra.NoArgs,
	RunE:  runSensors,
}

var (
	statusURL    string
	statusToken  string
	statusFollow bool
)

func init() {
	statusCmd.Flags().StringVar(&statusURL, "url", "http://localhost:8080", "status server base URL")
	statusCmd.Flags().StringVar(&statusToken, "token", "", "bearer token (defaults to TELEMETRYGEN_STATUS_AUTH_TOKEN)")
	statusCmd.Flags().BoolVarP(&statusFollow, "follow", "f", false, "stream updates until the run finishes")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(sensorsCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	token := statusToken
	if !cmd.Flags().Changed("token") {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		token = cfg.Status.AuthToken
	}

	client := api.NewClient(statusURL, token)
	w := cmd.OutOrStdout()
	if statusFollow {
		return client.Follow(cmd.Context(), func(run *status.Run) {
			fmt.Fprintf(w, "%s  %-10s %-12s %s readings\n",
				time.Now().Format(time.TimeOnly), run.Phase, run.Step, humanize.Comma(int64(run.Readings)))
		})
	}

	run, err := client.Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "run:       %s\n", run.ID)
	fmt.Fprintf(w, "launch:    %s\n", run.LaunchID)
	fmt.Fprintf(w, "phase:     %s", run.Phase)
	if run.Step != "" {
		fmt.Fprintf(w, " (%s)", run.Step)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "started:   %s (%s)\n", run.StartedAt.Format(time.RFC3339), humanize.Time(run.StartedAt))
	if run.FinishedAt != nil {
		fmt.Fprintf(w, "finished:  %s\n", run.FinishedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "ticks:     %s\n", humanize.Comma(int64(run.Ticks)))
	fmt.Fprintf(w, "readings:  %s\n", humanize.Comma(int64(run.Readings)))
	if run.InfluxBatches > 0 {
		fmt.Fprintf(w, "influx:    %d/%d batches\n", run.Committed, run.InfluxBatches)
	}
	if run.ParquetPath != "" {
		fmt.Fprintf(w, "parquet:   %s\n", run.ParquetPath)
	}
	if run.MetadataPath != "" {
		fmt.Fprintf(w, "metadata:  %s\n", run.MetadataPath)
	}
	if run.Error != "" {
		fmt.Fprintf(w, "error:     %s\n", run.Error)
	}
	return nil
}

func runSensors(cmd *cobra.Command, _ []string) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tCODE\tNAME\tUNIT\tKIND")
	for _, ch := range sensor.All() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", int(ch), ch.Code(), ch.Name(), ch.Unit(), ch.Kind())
	}
	return tw.Flush()
}
