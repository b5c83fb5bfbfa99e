package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/charleschow/polyclob/internal/core/trading"
	"github.com/charleschow/polyclob/internal/events"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		count   int
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch <token_id>...",
		Short: "Stream book, price and trade events for outcome tokens",
		Args:  minArgs(1, "token_id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]string, 0, len(args))
			for _, arg := range args {
				id, err := trading.ParseTokenID(arg)
				if err != nil {
					return usage(err)
				}
				ids = append(ids, id)
			}
			if count < 0 {
				return usageErrorf("--count must be >= 0, got %d", count)
			}
			if timeout < 0 {
				return usageErrorf("--timeout must be >= 0, got %s", timeout)
			}

			var (
				ctx    context.Context
				cancel context.CancelFunc
			)
			if timeout > 0 {
				ctx, cancel = context.WithTimeout(cmd.Context(), timeout)
			} else {
				ctx, cancel = context.WithCancel(cmd.Context())
			}
			defer cancel()

			got := make(chan events.Event, 64)
			bus := events.NewBus()
			bus.Subscribe(func(e events.Event) error {
				select {
				case got <- e:
				case <-ctx.Done():
				}
				return nil
			}, events.MarketEventTypes...)

			feed := a.factory.Feed(a.cfg, bus)
			if err := feed.SubscribeAssets(ids); err != nil {
				return fmt.Errorf("subscribe: %w", err)
			}
			if err := feed.Connect(ctx); err != nil {
				return fmt.Errorf("connect %s: %w", a.cfg.WSURL, err)
			}
			defer feed.Close()

			for n := 0; count == 0 || n < count; n++ {
				select {
				case e := <-got:
					if err := a.printEvent(e); err != nil {
						return err
					}
				case <-ctx.Done():
					// A finished --timeout is a normal stop; an interrupt is not.
					if errors.Is(cmd.Context().Err(), context.Canceled) {
						return cmd.Context().Err()
					}
					return nil
				case <-feed.Done():
					return errors.New("market feed closed")
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 0, "stop after this many events (0 = no limit)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "stop after this long (0 = until interrupted)")
	return cmd
}

// printEvent writes one event per line so the stream can be piped.
func (a *app) printEvent(e events.Event) error {
	if a.output == "table" {
		_, err := fmt.Fprintf(a.out, "%s  %-16s  %s  %s\n",
			e.Timestamp.Format("15:04:05.000"), e.Type, e.ID, eventSummary(e))
		return err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, string(data))
	return err
}

func eventSummary(e events.Event) string {
	switch p := e.Payload.(type) {
	case events.BookEvent:
		book := trading.OrderBook{Bids: p.Bids, Asks: p.Asks}
		bid, ask := trading.BestBidAsk(&book)
		return fmt.Sprintf("bid %s ask %s (%d/%d levels)", levelString(bid), levelString(ask), len(p.Bids), len(p.Asks))
	case events.PriceChangeEvent:
		s := ""
		for i, ch := range p.Changes {
			if i > 0 {
				s += ", "
			}
			s += fmt.Sprintf("%s %s@%s", ch.Side, ch.Size, ch.Price)
		}
		return s
	case events.LastTradeEvent:
		return fmt.Sprintf("%s %s@%s", p.Side, p.Size, p.Price)
	case events.TickSizeEvent:
		return fmt.Sprintf("tick %s -> %s", p.OldTickSize, p.NewTickSize)
	}
	return ""
}
