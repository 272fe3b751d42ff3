package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/star/telemetrygen/internal/export"
	"github.com/star/telemetrygen/internal/sensor"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.parquet>",
	Short: "Summarise a generated Parquet file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

// channelSummary aggregates the rows of one sensor.
type channelSummary struct {
	Sensor string
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64 // sample standard deviation, 0 for a single row
}

// fileSummary aggregates a whole readings file.
type fileSummary struct {
	Rows        int
	FirstMS     uint64
	LastMS      uint64
	Channels    []channelSummary
	MaxJitterUS int64 // largest |timestamp - (first + elapsed)| in µs
}

func summarize(rows []export.Row) fileSummary {
	s := fileSummary{Rows: len(rows)}
	if len(rows) == 0 {
		return s
	}
	s.FirstMS = rows[0].ElapsedMS
	s.LastMS = rows[len(rows)-1].ElapsedMS

	// The first reading carries jitter too, so this is relative to it.
	base := rows[0].Timestamp.UnixMicro() - int64(rows[0].ElapsedMS)*1000

	values := make(map[string][]float64)
	for _, r := range rows {
		values[r.Sensor] = append(values[r.Sensor], r.Value)

		d := r.Timestamp.UnixMicro() - base - int64(r.ElapsedMS)*1000
		if d < 0 {
			d = -d
		}
		if d > s.MaxJitterUS {
			s.MaxJitterUS = d
		}
	}

	order := make(map[string]int, sensor.Count)
	for _, ch := range sensor.All() {
		order[ch.Code()] = int(ch)
	}
	for name, v := range values {
		cs := channelSummary{Sensor: name, Count: len(v), Min: floats.Min(v), Max: floats.Max(v)}
		if len(v) > 1 {
			cs.Mean, cs.StdDev = stat.MeanStdDev(v, nil)
		} else {
			cs.Mean = v[0]
		}
		s.Channels = append(s.Channels, cs)
	}
	sort.Slice(s.Channels, func(i, j int) bool {
		oi, iok := order[s.Channels[i].Sensor]
		oj, jok := order[s.Channels[j].Sensor]
		if iok != jok {
			return iok
		}
		if oi != oj {
			return oi < oj
		}
		return s.Channels[i].Sensor < s.Channels[j].Sensor
	})
	return s
}

func printSummary(w io.Writer, path string, s fileSummary) {
	fmt.Fprintf(w, "file:     %s\n", path)
	fmt.Fprintf(w, "rows:     %s\n", humanize.Comma(int64(s.Rows)))
	if s.Rows == 0 {
		return
	}
	fmt.Fprintf(w, "elapsed:  %d ms .. %d ms\n", s.FirstMS, s.LastMS)
	fmt.Fprintf(w, "jitter:   max %d µs\n\n", s.MaxJitterUS)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SENSOR\tCOUNT\tMIN\tMAX\tMEAN\tSTDDEV")
	for _, c := range s.Channels {
		fmt.Fprintf(tw, "%s\t%d\t%.4g\t%.4g\t%.4g\t%.4g\n", c.Sensor, c.Count, c.Min, c.Max, c.Mean, c.StdDev)
	}
	tw.Flush()
}

func runInspect(cmd *cobra.Command, args []string) error {
	rows, err := export.ReadParquet(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), args[0], summarize(rows))
	return nil
}
