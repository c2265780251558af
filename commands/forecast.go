package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/omarqouqas/cashflowforecaster/api"
	"github.com/omarqouqas/cashflowforecaster/forecast"
)

func newForecastCommand(g *globalFlags) *cobra.Command {
	var (
		profileID string
		days      int
		asOf      string
		asJSON    bool
		allDays   bool
	)

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Print the forecast for a stored profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.load()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			now := time.Now()
			if asOf != "" {
				d, err := forecast.ParseDate(asOf)
				if err != nil {
					return err
				}
				now = d.Time(time.UTC).Add(12 * time.Hour)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			profile, err := store.GetProfile(ctx, profileID)
			if err != nil {
				return err
			}
			horizon := cfg.Forecast.Tiers.HorizonFor(profile.Tier, days)
			gathered, err := forecast.Gather(ctx, store, profileID, horizon, now)
			if err != nil {
				return err
			}
			if gathered.TZError != nil {
				logger.Warnf("%v; using UTC", gathered.TZError)
			}
			result := forecast.BuildForecast(gathered.Input)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(api.NewForecastDTO(profileID, horizon, result))
			}
			printForecast(out, gathered.Profile, result, allDays)
			return nil
		},
	}

	cmd.Flags().StringVar(&profileID, "profile", "", "profile ID")
	cmd.Flags().IntVar(&days, "days", 0, "horizon in days (capped by tier; 0 = tier maximum)")
	cmd.Flags().StringVar(&asOf, "as-of", "", "forecast as if today were YYYY-MM-DD")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the API JSON payload")
	cmd.Flags().BoolVar(&allDays, "all", false, "print every day, not only days with activity")
	_ = cmd.MarkFlagRequired("profile")
	return cmd
}

func printForecast(out io.Writer, p forecast.Profile, res forecast.ForecastResult, allDays bool) {
	fmt.Fprintf(out, "Forecast for %s: %s (%d days)\n", p.Name, res.Window, len(res.Days))
	fmt.Fprintf(out, "Starting %s  Ending %s  Safe to spend %s\n\n",
		money(res.StartingBalance), money(res.EndingBalance()), money(res.SafeToSpend()))

	printDays(out, res.Days, allDays)
	printRisks(out, res.Risks)
}

func printDays(out io.Writer, days []forecast.DaySnapshot, allDays bool) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tSTART\tCHANGE\tEND\tEVENTS")
	for _, d := range days {
		if !allDays && len(d.Occurrences) == 0 {
			continue
		}
		events := make([]string, len(d.Occurrences))
		for i, o := range d.Occurrences {
			events[i] = fmt.Sprintf("%s %s", o.SourceName, signed(o.Amount))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.Date, money(d.StartingBalance), signed(d.NetChange), money(d.EndingBalance), strings.Join(events, ", "))
	}
	tw.Flush()
}

func printRisks(out io.Writer, r forecast.RiskReport) {
	fmt.Fprintf(out, "\n%d low-balance day(s), %d overdraft day(s), %d collision(s)\n",
		len(r.LowBalanceDays), len(r.OverdraftDays), len(r.Collisions))
	if r.LowestPoint != nil {
		fmt.Fprintf(out, "Lowest point: %s on %s\n", money(r.LowestPoint.Amount), r.LowestPoint.Date)
	}
}

func money(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

func signed(d decimal.Decimal) string {
	if d.IsNegative() {
		return money(d)
	}
	return "+" + money(d)
}
