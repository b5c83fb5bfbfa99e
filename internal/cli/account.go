package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/charleschow/polyclob/internal/adapters/outbound/clob_http"
	"github.com/charleschow/polyclob/internal/core/trading"
)

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the signing address, funder and exchange contracts",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.withTimeout(cmd)
			defer cancel()

			ex, err := a.exchange(ctx, true)
			if err != nil {
				return err
			}
			who := ex.Identity()
			return a.emit(who, identityTable(who))
		},
	}
}

func identityTable(who clob_http.Identity) func(tw *tabwriter.Writer) {
	return kvTable(
		[2]string{"address", who.Address},
		[2]string{"funder", who.Funder},
		[2]string{"signature_type", fmt.Sprint(who.SignatureType)},
		[2]string{"host", who.Host},
		[2]string{"chain_id", fmt.Sprint(who.ChainID)},
		[2]string{"collateral", who.Collateral},
		[2]string{"exchange", who.Exchange},
		[2]string{"neg_risk_exchange", who.NegRiskExchange},
	)
}

// balanceFlags are shared by balance and refresh-balance.
type balanceFlags struct {
	assetType string
	tokenID   string
	sigType   int
}

func (f *balanceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.assetType, "asset-type", "collateral", "collateral or conditional")
	cmd.Flags().StringVar(&f.tokenID, "token-id", "", "outcome token id (required for conditional)")
	cmd.Flags().IntVar(&f.sigType, "signature-type", 0, "override POLYMARKET_SIG_TYPE for this query")
}

func (f *balanceFlags) params(cmd *cobra.Command) (clob_http.BalanceAllowanceParams, error) {
	var p clob_http.BalanceAllowanceParams

	switch strings.ToLower(strings.TrimSpace(f.assetType)) {
	case "collateral":
		p.AssetType = trading.Collateral
	case "conditional":
		p.AssetType = trading.Conditional
	default:
		return p, usageErrorf("--asset-type must be collateral or conditional, got %q", f.assetType)
	}

	if f.tokenID != "" {
		id, err := trading.ParseTokenID(f.tokenID)
		if err != nil {
			return p, usage(err)
		}
		p.TokenID = id
	}
	if p.AssetType == trading.Conditional && p.TokenID == "" {
		return p, usageErrorf("--token-id is required for --asset-type conditional")
	}

	if cmd.Flags().Changed("signature-type") {
		if f.sigType < 0 || f.sigType > 2 {
			return p, usageErrorf("--signature-type must be 0, 1 or 2, got %d", f.sigType)
		}
		st := f.sigType
		p.SignatureType = &st
	}
	return p, nil
}

func newBalanceCmd(a *app) *cobra.Command {
	var flags balanceFlags

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Print balance and allowances as seen by the exchange",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := flags.params(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := a.withTimeout(cmd)
			defer cancel()

			ex, err := a.exchange(ctx, true)
			if err != nil {
				return err
			}
			bal, err := ex.GetBalanceAllowance(ctx, params)
			if err != nil {
				return fmt.Errorf("fetch balance/allowance: %w", err)
			}
			return a.emit(bal, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "balance\t%s\n", bal.Balance)
				if bal.Allowance != "" {
					fmt.Fprintf(tw, "allowance\t%s\n", bal.Allowance)
				}
				for _, sp := range bal.Spenders() {
					fmt.Fprintf(tw, "allowance %s\t%s\n", sp, bal.Allowances[sp])
				}
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newRefreshBalanceCmd(a *app) *cobra.Command {
	var flags balanceFlags

	cmd := &cobra.Command{
		Use:   "refresh-balance",
		Short: "Ask the exchange to re-read balance and allowances from chain",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := flags.params(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := a.withTimeout(cmd)
			defer cancel()

			ex, err := a.exchange(ctx, true)
			if err != nil {
				return err
			}
			raw, err := ex.UpdateBalanceAllowance(ctx, params)
			if err != nil {
				return fmt.Errorf("refresh balance/allowance: %w", err)
			}
			return a.emit(json.RawMessage(raw), nil)
		},
	}
	flags.register(cmd)
	return cmd
}
