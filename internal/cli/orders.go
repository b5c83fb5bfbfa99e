package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/charleschow/polyclob/internal/adapters/outbound/clob_http"
	"github.com/charleschow/polyclob/internal/config"
	"github.com/charleschow/polyclob/internal/core/trading"
	"github.com/charleschow/polyclob/internal/telemetry"
)

func newBuyCmd(a *app) *cobra.Command {
	return newLimitOrderCmd(a, trading.Buy)
}

func newSellCmd(a *app) *cobra.Command {
	return newLimitOrderCmd(a, trading.Sell)
}

// newLimitOrderCmd builds buy and sell, which differ only in side and the
// buy-side balance preflight.
func newLimitOrderCmd(a *app, side trading.Side) *cobra.Command {
	var orderType string
	name := strings.ToLower(string(side))

	cmd := &cobra.Command{
		Use:   name + " <token_id> <size> <price>",
		Short: fmt.Sprintf("Place a %s limit order", name),
		Args:  exactArgs("token_id", "size", "price"),
		RunE: func(cmd *cobra.Command, args []string) error {
			orderArgs, err := parseOrderArgs(side, args[0], args[1], args[2])
			if err != nil {
				return usage(err)
			}
			ot, err := parseOrderType(orderType)
			if err != nil {
				return err
			}
			if err := a.checkRisk(orderArgs); err != nil {
				return err
			}

			ctx, cancel := a.withTimeout(cmd)
			defer cancel()

			ex, err := a.exchange(ctx, true)
			if err != nil {
				return err
			}
			if side == trading.Buy {
				preflight(ctx, ex)
			}

			resp, err := ex.CreateAndPostOrder(ctx, orderArgs, ot, clob_http.OrderOptions{})
			if err != nil {
				return fmt.Errorf("place %s order: %w", name, err)
			}
			return a.emit(resp, orderTable(resp))
		},
	}
	cmd.Flags().StringVar(&orderType, "order-type", string(trading.GTC), "GTC, FOK or FAK")
	return cmd
}

func newBuyMaxCmd(a *app) *cobra.Command {
	var limitPrice, orderType string

	cmd := &cobra.Command{
		Use:   "buy-max <token_id> <max_usd>",
		Short: "Buy as many shares as fit in a USD cap",
		Args:  exactArgs("token_id", "max_usd"),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokenID, err := trading.ParseTokenID(args[0])
			if err != nil {
				return usage(err)
			}
			capUSD, err := trading.ParsePositive("max_usd", args[1])
			if err != nil {
				return usage(err)
			}
			var limit decimal.NullDecimal
			if limitPrice != "" {
				p, err := trading.ParsePrice(limitPrice)
				if err != nil {
					return usage(err)
				}
				limit = decimal.NullDecimal{Decimal: p, Valid: true}
			}
			ot, err := parseOrderType(orderType)
			if err != nil {
				return err
			}

			ctx, cancel := a.withTimeout(cmd)
			defer cancel()

			ex, err := a.exchange(ctx, true)
			if err != nil {
				return err
			}
			book, err := ex.GetOrderBook(ctx, tokenID)
			if err != nil {
				return fmt.Errorf("fetch orderbook: %w", err)
			}

			plan, err := trading.PlanBuyMax(book, capUSD, limit)
			if err != nil {
				return err
			}
			orderArgs := plan.Args(tokenID)
			if err := a.checkRisk(orderArgs); err != nil {
				return err
			}
			telemetry.Infof("buy-max: %s shares at %s (cost %s of cap %s)", plan.Size, plan.Price, plan.Cost, plan.Cap)

			preflight(ctx, ex)

			tick, err := trading.ParseTickSize(book.TickSize)
			if err != nil {
				return err
			}
			negRisk := book.NegRisk
			resp, err := ex.CreateAndPostOrder(ctx, orderArgs, ot, clob_http.OrderOptions{
				TickSize: decimal.NullDecimal{Decimal: tick, Valid: true},
				NegRisk:  &negRisk,
			})
			if err != nil {
				return fmt.Errorf("place buy-max order: %w", err)
			}

			result := struct {
				Plan  trading.BuyMaxPlan        `json:"plan"`
				Order *clob_http.OrderResponse `json:"order"`
			}{plan, resp}
			return a.emit(result, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "price\t%s\nsize\t%s\ncost\t%s\ncap\t%s\n", plan.Price, plan.Size, plan.Cost, plan.Cap)
				orderTable(resp)(tw)
			})
		},
	}
	cmd.Flags().StringVar(&limitPrice, "price", "", "limit price (default best ask)")
	cmd.Flags().StringVar(&orderType, "order-type", string(trading.GTC), "GTC, FOK or FAK")
	return cmd
}

func newCancelCmd(a *app) *cobra.Command {
	var (
		orderID string
		all     bool
	)

	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel one order or all open orders",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			orderID = strings.TrimSpace(orderID)
			switch {
			case all && orderID != "":
				return usageErrorf("use either --all or --order-id, not both")
			case !all && orderID == "":
				return usageErrorf("provide --order-id or use --all")
			}

			ctx, cancel := a.withTimeout(cmd)
			defer cancel()

			ex, err := a.exchange(ctx, true)
			if err != nil {
				return err
			}

			var resp *clob_http.CancelResponse
			if all {
				resp, err = ex.CancelAll(ctx)
			} else {
				resp, err = ex.Cancel(ctx, orderID)
			}
			if err != nil {
				return fmt.Errorf("cancel: %w", err)
			}
			return a.emit(resp, func(tw *tabwriter.Writer) {
				fmt.Fprintln(tw, "ORDER_ID\tSTATUS")
				for _, id := range resp.Canceled {
					fmt.Fprintf(tw, "%s\tcanceled\n", id)
				}
				for id, reason := range resp.NotCanceled {
					fmt.Fprintf(tw, "%s\t%s\n", id, reason)
				}
			})
		},
	}
	cmd.Flags().StringVar(&orderID, "order-id", "", "order id to cancel")
	cmd.Flags().BoolVar(&all, "all", false, "cancel every open order")
	return cmd
}

func parseOrderArgs(side trading.Side, token, size, price string) (trading.OrderArgs, error) {
	tokenID, err := trading.ParseTokenID(token)
	if err != nil {
		return trading.OrderArgs{}, err
	}
	sz, err := trading.ParsePositive("size", size)
	if err != nil {
		return trading.OrderArgs{}, err
	}
	p, err := trading.ParsePrice(price)
	if err != nil {
		return trading.OrderArgs{}, err
	}
	return trading.OrderArgs{TokenID: tokenID, Side: side, Price: p, Size: sz}, nil
}

func parseOrderType(s string) (trading.OrderType, error) {
	ot, ok := trading.ParseOrderType(strings.ToUpper(strings.TrimSpace(s)))
	if !ok {
		return "", usageErrorf("--order-type must be GTC, FOK or FAK, got %q", s)
	}
	return ot, nil
}

// checkRisk applies the optional per-order limits file before anything is
// signed.
func (a *app) checkRisk(args trading.OrderArgs) error {
	limits, err := config.LoadRiskLimits(a.cfg.RiskLimitsPath)
	if err != nil {
		return err
	}
	if !limits.Enabled() {
		return nil
	}
	return trading.NewRiskGuard(limits.MaxOrderUSD, limits.MaxOrderSize).Check(args)
}

// preflight warns when the account has no collateral or no allowance. The
// order is still sent; the exchange has the final word.
func preflight(ctx context.Context, ex Exchange) {
	bal, err := ex.GetBalanceAllowance(ctx, clob_http.BalanceAllowanceParams{AssetType: trading.Collateral})
	if err != nil {
		telemetry.Warnf("could not preflight balance/allowance: %v", err)
		return
	}
	if !bal.Funded() {
		telemetry.Warnf("could not preflight balance/allowance: insufficient balance/allowance (balance or allowance is 0)")
	}
}

func orderTable(resp *clob_http.OrderResponse) func(tw *tabwriter.Writer) {
	return func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "order_id\t%s\nstatus\t%s\nsuccess\t%t\n", resp.OrderID, resp.Status, resp.Success)
		if resp.ErrorMsg != "" {
			fmt.Fprintf(tw, "error\t%s\n", resp.ErrorMsg)
		}
		for _, h := range resp.TransactionsHashes {
			fmt.Fprintf(tw, "tx\t%s\n", h)
		}
	}
}
