package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/omarqouqas/cashflowforecaster/forecast"
)

func newAffordCommand() *cobra.Command {
	var (
		balance, amount, date, buffer, start string
		name                                 string
		days                                 int
		bills, income                        []string
	)

	cmd := &cobra.Command{
		Use:   "afford",
		Short: `Answer "can I afford it?" for a one-off purchase`,
		Example: `  cashflow afford --balance 2000 --amount 300 --date 2025-03-25 --buffer 300 \
    --bill "Rent:1500:2025-04-01" --income "Invoice:1200:2025-04-10"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := forecast.AffordInput{PurchaseName: name}
			var err error

			if in.StartingBalance, err = decimal.NewFromString(balance); err != nil {
				return &forecast.ParseError{Field: "balance", Value: balance, Err: forecast.ErrInvalidAmount}
			}
			if in.PurchaseAmount, err = forecast.ParseAmount(amount); err != nil {
				return err
			}
			if in.PurchaseDate, err = forecast.ParseDate(date); err != nil {
				return err
			}
			if in.SafetyBuffer, err = forecast.ParseAmount(buffer); err != nil {
				return err
			}
			first := forecast.Today(time.Now(), time.Local)
			if start != "" {
				if first, err = forecast.ParseDate(start); err != nil {
					return err
				}
			}
			in.Window = forecast.WindowFromHorizon(first, days)
			if in.Bills, err = parseDatedFlags(bills); err != nil {
				return err
			}
			if in.Income, err = parseDatedFlags(income); err != nil {
				return err
			}

			res, err := forecast.Afford(in)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.CanAfford {
				fmt.Fprintf(out, "Yes: the lowest point stays %s above your buffer.\n", money(res.Headroom))
			} else {
				fmt.Fprintf(out, "No: the balance falls %s below your buffer.\n", money(res.Headroom.Abs()))
			}
			printDays(out, res.Days, false)
			printRisks(out, res.Risks)
			return nil
		},
	}

	cmd.Flags().StringVar(&balance, "balance", "0", "current spendable balance")
	cmd.Flags().StringVar(&name, "name", "Purchase", "purchase name")
	cmd.Flags().StringVar(&amount, "amount", "", "purchase amount")
	cmd.Flags().StringVar(&date, "date", "", "purchase date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&buffer, "buffer", "0", "safety buffer")
	cmd.Flags().StringVar(&start, "start", "", "first day of the window (default today)")
	cmd.Flags().IntVar(&days, "days", 30, "window length in days")
	cmd.Flags().StringArrayVar(&bills, "bill", nil, "upcoming bill as NAME:AMOUNT:YYYY-MM-DD (repeatable)")
	cmd.Flags().StringArrayVar(&income, "income", nil, "expected income as NAME:AMOUNT:YYYY-MM-DD (repeatable)")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

// parseDatedFlags parses NAME:AMOUNT:DATE triples. The name may itself
// contain colons.
func parseDatedFlags(values []string) ([]forecast.DatedAmount, error) {
	out := make([]forecast.DatedAmount, 0, len(values))
	for _, v := range values {
		parts := strings.Split(v, ":")
		if len(parts) < 3 {
			return nil, fmt.Errorf("%q: want NAME:AMOUNT:YYYY-MM-DD", v)
		}
		n := len(parts)
		amount, err := forecast.ParseAmount(parts[n-2])
		if err != nil {
			return nil, err
		}
		date, err := forecast.ParseDate(parts[n-1])
		if err != nil {
			return nil, err
		}
		out = append(out, forecast.DatedAmount{
			Name:   strings.Join(parts[:n-2], ":"),
			Amount: amount,
			Date:   date,
		})
	}
	return out, nil
}
