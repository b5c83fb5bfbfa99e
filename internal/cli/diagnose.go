package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/charleschow/polyclob/internal/core/diagnose"
)

func newDiagnoseCmd(a *app) *cobra.Command {
	var opts diagnose.Options

	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Explain why orders are rejected for balance or allowance",
		Long: `diagnose prints identity, the exchange's view of collateral balance and
allowances, and optionally the onchain ERC-20 allowances.

--fix refreshes the exchange view and adds recommendations. --approve (with
--fix, EOA accounts only) also sends approve transactions for spenders whose
onchain allowance is zero. Nothing is changed without --fix.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.Approve && !opts.Fix {
				return usageErrorf("--approve requires --fix")
			}

			ctx, cancel := a.withTimeout(cmd)
			defer cancel()

			ex, err := a.exchange(ctx, true)
			if err != nil {
				return err
			}

			deps := diagnose.Deps{Exchange: ex, Key: ex.SigningKey()}
			if opts.Onchain || opts.Approve {
				chain, err := a.factory.Chain(ctx, a.cfg)
				if err != nil {
					return fmt.Errorf("rpc: %w", err)
				}
				defer chain.Close()
				deps.Chain = chain
			}

			report, err := diagnose.Run(ctx, deps, opts)
			if err != nil {
				return fmt.Errorf("diagnose: %w", err)
			}
			return a.emit(report, diagnoseTable(report))
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.Onchain, "onchain", false, "also read USDC allowances over POLYMARKET_RPC")
	f.BoolVar(&opts.Fix, "fix", false, "refresh the exchange view and print recommendations")
	f.BoolVar(&opts.Approve, "approve", false, "with --fix: send approve transactions for zero allowances")
	return cmd
}

func diagnoseTable(r *diagnose.Report) func(tw *tabwriter.Writer) {
	return func(tw *tabwriter.Writer) {
		identityTable(r.WhoAmI)(tw)
		if r.Refresh != nil {
			status := "ok"
			if !r.Refresh.OK {
				status = "error: " + r.Refresh.Error
			}
			fmt.Fprintf(tw, "refresh\t%s\n", status)
		}
		fmt.Fprintf(tw, "balance\t%s\n", r.BalanceAllowance.Balance)
		for _, sp := range r.BalanceAllowance.Spenders() {
			fmt.Fprintf(tw, "api allowance %s\t%s\n", sp, r.BalanceAllowance.Allowances[sp])
		}
		for _, sp := range sortedKeys(r.OnchainAllowances) {
			a := r.OnchainAllowances[sp]
			v := a.Allowance
			if a.Error != "" {
				v = "error: " + a.Error
			}
			fmt.Fprintf(tw, "onchain allowance %s\t%s\n", sp, v)
		}
		for _, sp := range sortedKeys(r.Approvals) {
			ap := r.Approvals[sp]
			v := ap.TxHash
			if ap.Error != "" {
				v = "error: " + ap.Error
			}
			fmt.Fprintf(tw, "approve %s\t%s\n", sp, v)
		}
		for _, rec := range r.Recommendations {
			fmt.Fprintf(tw, "recommendation\t%s\n", rec)
		}
		for _, step := range r.NextSteps {
			fmt.Fprintf(tw, "next step\t%s\n", step)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
