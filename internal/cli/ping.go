package cli

import (
	"fmt"
	"net/http"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/charleschow/polyclob/internal/adapters/inbound/clob_ws"
	"github.com/charleschow/polyclob/internal/adapters/outbound/clob_http"
	"github.com/charleschow/polyclob/internal/core/latency"
	"github.com/charleschow/polyclob/internal/telemetry"
)

type pingReport struct {
	URL        string         `json:"url"`
	ColdMS     float64        `json:"cold_ms"`
	Status     int            `json:"status"`
	HTTP       *latency.Stats `json:"http,omitempty"`
	HTTPErrors int            `json:"http_errors"`
	WSURL      string         `json:"ws_url,omitempty"`
	WS         *latency.Stats `json:"ws,omitempty"`
	WSError    string         `json:"ws_error,omitempty"`
}

func newPingCmd(a *app) *cobra.Command {
	var (
		n  int
		ws bool
	)

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Measure round-trip latency to the CLOB REST API and market websocket",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if n < 2 {
				return usageErrorf("--count must be >= 2, got %d", n)
			}
			ctx, cancel := a.withTimeout(cmd)
			defer cancel()

			rep := pingReport{URL: a.cfg.Host + "/"}

			// A fresh client pays for DNS, TCP and TLS on the first request.
			cold := &http.Client{Timeout: a.cfg.Timeout}
			ms, status, err := clob_http.MeasureHTTP(ctx, cold, rep.URL)
			if err != nil {
				return fmt.Errorf("ping %s: %w", rep.URL, err)
			}
			rep.ColdMS, rep.Status = ms, status
			telemetry.Debugf("ping: cold %.2fms status %d", ms, status)

			warm := make([]float64, 0, n)
			for i := 0; i < n; i++ {
				ms, _, err := clob_http.MeasureHTTP(ctx, cold, rep.URL)
				if err != nil {
					rep.HTTPErrors++
					telemetry.Warnf("ping: request %d: %v", i+1, err)
					continue
				}
				warm = append(warm, ms)
			}
			if s, ok := latency.Summarize(warm); ok {
				rep.HTTP = &s
			}

			if ws {
				rep.WSURL = a.cfg.WSURL
				samples, err := clob_ws.MeasurePing(ctx, a.cfg.WSURL, n)
				if err != nil {
					rep.WSError = err.Error()
				}
				if s, ok := latency.Summarize(samples); ok {
					rep.WS = &s
				}
			}

			return a.emit(rep, func(tw *tabwriter.Writer) { pingTable(tw, rep) })
		},
	}
	cmd.Flags().IntVarP(&n, "count", "n", 20, "warm requests (and websocket pings) to time")
	cmd.Flags().BoolVar(&ws, "ws", false, "also time websocket ping/pong on the market channel")
	return cmd
}

func pingTable(tw *tabwriter.Writer, rep pingReport) {
	fmt.Fprintf(tw, "TARGET\tN\tMIN\tMEDIAN\tMEAN\tP95\tP99\tMAX\n")
	fmt.Fprintf(tw, "%s (cold)\t1\t%.2f\t-\t-\t-\t-\t-\n", rep.URL, rep.ColdMS)
	statsRow := func(name string, s *latency.Stats) {
		if s == nil {
			fmt.Fprintf(tw, "%s\t0\t-\t-\t-\t-\t-\t-\n", name)
			return
		}
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
			name, s.Count, s.Min, s.Median, s.Mean, s.P95, s.P99, s.Max)
	}
	statsRow(rep.URL, rep.HTTP)
	if rep.WSURL != "" {
		statsRow(rep.WSURL, rep.WS)
	}
}
