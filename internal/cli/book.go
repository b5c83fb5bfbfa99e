package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/charleschow/polyclob/internal/core/trading"
)

func newOrderbookCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "orderbook <token_id>",
		Short: "Print the order book for an outcome token",
		Args:  exactArgs("token_id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokenID, err := trading.ParseTokenID(args[0])
			if err != nil {
				return usage(err)
			}

			ctx, cancel := a.withTimeout(cmd)
			defer cancel()

			ex, err := a.exchange(ctx, false)
			if err != nil {
				return err
			}
			book, err := ex.GetOrderBook(ctx, tokenID)
			if err != nil {
				return fmt.Errorf("fetch orderbook: %w", err)
			}
			return a.emit(book, bookTable(book))
		},
	}
}

func newQuoteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "quote <token_id>",
		Short: "Print best bid/ask, tick size and minimum order size",
		Args:  exactArgs("token_id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokenID, err := trading.ParseTokenID(args[0])
			if err != nil {
				return usage(err)
			}

			ctx, cancel := a.withTimeout(cmd)
			defer cancel()

			ex, err := a.exchange(ctx, false)
			if err != nil {
				return err
			}
			book, err := ex.GetOrderBook(ctx, tokenID)
			if err != nil {
				return fmt.Errorf("fetch quote: %w", err)
			}

			q := trading.NewQuote(tokenID, book)
			return a.emit(q, kvTable(
				[2]string{"token_id", q.TokenID},
				[2]string{"best_bid", levelString(q.BestBid)},
				[2]string{"best_ask", levelString(q.BestAsk)},
				[2]string{"min_order_size", q.MinOrderSize.String()},
				[2]string{"tick_size", q.TickSize},
				[2]string{"last_trade_price", q.LastTradePrice},
				[2]string{"neg_risk", fmt.Sprint(q.NegRisk)},
			))
		},
	}
}

func levelString(l *trading.PriceLevel) string {
	if l == nil {
		return "-"
	}
	return fmt.Sprintf("%s x %s", l.Price, l.Size)
}

// bookTable prints asks high to low above bids high to low, so the spread
// sits in the middle.
func bookTable(book *trading.OrderBook) func(tw *tabwriter.Writer) {
	return func(tw *tabwriter.Writer) {
		asks := append([]trading.PriceLevel(nil), book.Asks...)
		bids := append([]trading.PriceLevel(nil), book.Bids...)
		sort.Slice(asks, func(i, j int) bool { return asks[i].Price.GreaterThan(asks[j].Price) })
		sort.Slice(bids, func(i, j int) bool { return bids[i].Price.GreaterThan(bids[j].Price) })

		fmt.Fprintln(tw, "SIDE\tPRICE\tSIZE")
		for _, l := range asks {
			fmt.Fprintf(tw, "ask\t%s\t%s\n", l.Price, l.Size)
		}
		for _, l := range bids {
			fmt.Fprintf(tw, "bid\t%s\t%s\n", l.Price, l.Size)
		}
		fmt.Fprintf(tw, "\ntick_size\t%s\nmin_order_size\t%s\n", book.TickSize, book.MinOrderSize)
	}
}
