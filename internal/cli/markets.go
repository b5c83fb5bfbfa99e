package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/charleschow/polyclob/internal/adapters/outbound/clob_http"
	"github.com/charleschow/polyclob/internal/core/trading"
	"github.com/charleschow/polyclob/internal/telemetry"
)

// Titles need one /markets/{id} call per row, so --with-title without
// --limit is capped.
const defaultTitleLimit = 20

func newMarketsCmd(a *app) *cobra.Command {
	var (
		id            string
		cursor        string
		sampling      bool
		acceptingOnly bool
		limit         int
		withTitle     bool
	)

	cmd := &cobra.Command{
		Use:   "markets",
		Short: "List simplified markets, or fetch one by condition id",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var conditionID string
			if id != "" {
				cid, err := trading.ParseConditionID(id)
				if err != nil {
					return usage(err)
				}
				conditionID = cid
			}
			if limit < 0 {
				return usageErrorf("--limit must be >= 0, got %d", limit)
			}

			ctx, cancel := a.withTimeout(cmd)
			defer cancel()

			ex, err := a.exchange(ctx, false)
			if err != nil {
				return err
			}

			if conditionID != "" {
				m, err := ex.GetMarket(ctx, conditionID)
				if err != nil {
					return fmt.Errorf("fetch market: %w", err)
				}
				return a.emit(m, marketsTable([]clob_http.Market{m}, ""))
			}

			var page *clob_http.MarketsPage
			if sampling {
				page, err = ex.GetSamplingSimplifiedMarkets(ctx, cursor)
			} else {
				page, err = ex.GetSimplifiedMarkets(ctx, cursor)
			}
			if err != nil {
				return fmt.Errorf("fetch markets: %w", err)
			}

			if acceptingOnly {
				page.Data = filterAccepting(page.Data)
			}
			if withTitle && limit == 0 {
				limit = defaultTitleLimit
			}
			if limit > 0 && len(page.Data) > limit {
				page.Data = page.Data[:limit]
			}
			if withTitle {
				addTitles(ctx, ex, page.Data)
			}

			return a.emit(page, marketsTable(page.Data, page.NextCursor))
		},
	}

	f := cmd.Flags()
	f.StringVar(&id, "id", "", "market condition id (0x + 64 hex)")
	f.StringVar(&cursor, "cursor", "", "pagination cursor from a previous next_cursor")
	f.BoolVar(&sampling, "sampling", false, "use the sampling (rewards) markets endpoint")
	f.BoolVar(&acceptingOnly, "accepting-only", false, "only markets accepting orders")
	f.IntVar(&limit, "limit", 0, "max markets to print (0 = whole page)")
	f.BoolVar(&withTitle, "with-title", false, "look up each market's question")
	return cmd
}

func filterAccepting(markets []clob_http.Market) []clob_http.Market {
	out := markets[:0]
	for _, m := range markets {
		if accepting, _ := m["accepting_orders"].(bool); accepting {
			out = append(out, m)
		}
	}
	return out
}

// addTitles sets "title" from the market's question. Lookup failures
// leave a null title rather than failing the listing.
func addTitles(ctx context.Context, ex Exchange, markets []clob_http.Market) {
	for _, m := range markets {
		cid, _ := m["condition_id"].(string)
		if cid == "" {
			continue
		}
		detail, err := ex.GetMarket(ctx, cid)
		if err != nil {
			telemetry.Debugf("markets: title lookup %s: %v", cid, err)
			m["title"] = nil
			continue
		}
		m["title"] = firstString(detail, "question", "name", "title")
	}
}

func firstString(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return nil
}

func marketsTable(markets []clob_http.Market, nextCursor string) func(tw *tabwriter.Writer) {
	return func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "CONDITION_ID\tACCEPTING\tACTIVE\tTITLE")
		for _, m := range markets {
			title := field(m, "title")
			if title == "-" {
				title = field(m, "question")
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
				field(m, "condition_id"), field(m, "accepting_orders"), field(m, "active"), title)
		}
		if nextCursor != "" {
			fmt.Fprintf(tw, "\nnext_cursor\t%s\n", nextCursor)
		}
	}
}
