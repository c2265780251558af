/*
compose.go - Email bodies built from a forecast

PURPOSE:
  Turns a forecast.ForecastResult into the weekly digest and the
  low-balance alert. Pure functions: no I/O, no clock.

DIGEST (first 7 days):
  - opening and closing balance
  - income and bill totals
  - upcoming bills, grouped by day
  - lowest point and bill collisions

ALERT:
  - every low-balance day in the window, overdraft days flagged
*/
package notify

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/omarqouqas/cashflowforecaster/forecast"
)

// DigestDays is how many leading snapshots a digest covers.
const DigestDays = 7

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Text    string
}

// WeekSummary is the digest's view of the first DigestDays snapshots.
type WeekSummary struct {
	Window  forecast.Window
	Opening decimal.Decimal
	Closing decimal.Decimal
	Income  decimal.Decimal
	Bills   decimal.Decimal
	Risks   forecast.RiskReport
	Days    []forecast.DaySnapshot
}

// SummarizeWeek computes totals over the first DigestDays days of result.
func SummarizeWeek(result forecast.ForecastResult) WeekSummary {
	days := result.FirstDays(DigestDays)
	s := WeekSummary{
		Opening: result.StartingBalance,
		Closing: result.StartingBalance,
		Income:  decimal.Zero,
		Bills:   decimal.Zero,
		Days:    days,
		Risks:   forecast.DetectRisks(days, result.SafetyBuffer),
	}
	if len(days) == 0 {
		return s
	}
	s.Window = forecast.Window{Start: days[0].Date, End: days[len(days)-1].Date}
	s.Opening = days[0].StartingBalance
	s.Closing = days[len(days)-1].EndingBalance
	for _, d := range days {
		for _, o := range d.Occurrences {
			if o.Amount.IsNegative() {
				s.Bills = s.Bills.Add(o.Amount.Abs())
			} else {
				s.Income = s.Income.Add(o.Amount)
			}
		}
	}
	return s
}

// ComposeDigest builds the weekly digest email.
func ComposeDigest(p forecast.Profile, result forecast.ForecastResult) Message {
	week := SummarizeWeek(result)
	var b strings.Builder

	fmt.Fprintf(&b, "Hi %s,\n\n", displayName(p))
	if len(week.Days) == 0 {
		b.WriteString("There is nothing to forecast this week.\n")
	} else {
		fmt.Fprintf(&b, "Your week ahead (%s to %s):\n\n", week.Window.Start, week.Window.End)
		fmt.Fprintf(&b, "  Opening balance:  %s\n", money(week.Opening))
		fmt.Fprintf(&b, "  Income expected:  %s\n", money(week.Income))
		fmt.Fprintf(&b, "  Bills due:        %s\n", money(week.Bills))
		fmt.Fprintf(&b, "  Closing balance:  %s\n", money(week.Closing))
		if lp := week.Risks.LowestPoint; lp != nil {
			fmt.Fprintf(&b, "  Lowest point:     %s on %s\n", money(lp.Amount), lp.Date)
		}

		b.WriteString("\nUpcoming bills:\n")
		listed := false
		for _, d := range week.Days {
			for _, o := range d.Occurrences {
				if o.SourceKind != forecast.KindBill {
					continue
				}
				listed = true
				fmt.Fprintf(&b, "  %s  %-24s %s\n", d.Date, o.SourceName, money(o.Amount.Abs()))
			}
		}
		if !listed {
			b.WriteString("  none\n")
		}

		if len(week.Risks.Collisions) > 0 {
			b.WriteString("\nBusy days (several bills at once):\n")
			for _, c := range week.Risks.Collisions {
				fmt.Fprintf(&b, "  %s  %d bills, %s total\n", c.Date, c.OccurrenceCount, money(c.Total.Abs()))
			}
		}
		if n := len(week.Risks.LowBalanceDays); n > 0 {
			fmt.Fprintf(&b, "\nHeads up: %d day(s) end below your %s safety buffer.\n", n, money(result.SafetyBuffer))
		}
	}
	b.WriteString("\nCash Flow Forecaster\n")

	return Message{
		To:      p.Email,
		Subject: fmt.Sprintf("Your week ahead: closing at %s", money(week.Closing)),
		Text:    b.String(),
	}
}

// ComposeLowBalanceAlert builds the alert email. ok is false when the
// forecast has no low-balance days and nothing should be sent.
func ComposeLowBalanceAlert(p forecast.Profile, result forecast.ForecastResult) (msg Message, ok bool) {
	risks := result.Risks
	if len(risks.LowBalanceDays) == 0 {
		return Message{}, false
	}

	overdraft := make(map[forecast.Date]bool, len(risks.OverdraftDays))
	for _, d := range risks.OverdraftDays {
		overdraft[d] = true
	}
	ending := make(map[forecast.Date]decimal.Decimal, len(result.Days))
	for _, s := range result.Days {
		ending[s.Date] = s.EndingBalance
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", displayName(p))
	fmt.Fprintf(&b, "Your balance is projected to drop below your %s safety buffer:\n\n", money(result.SafetyBuffer))
	for _, d := range risks.LowBalanceDays {
		line := fmt.Sprintf("  %s  %s", d, money(ending[d]))
		if overdraft[d] {
			line += "  OVERDRAFT"
		}
		b.WriteString(line + "\n")
	}
	if lp := risks.LowestPoint; lp != nil {
		fmt.Fprintf(&b, "\nLowest point: %s on %s.\n", money(lp.Amount), lp.Date)
	}
	b.WriteString("\nCash Flow Forecaster\n")

	subject := fmt.Sprintf("Low balance ahead on %s", risks.LowBalanceDays[0])
	if len(risks.OverdraftDays) > 0 {
		subject = fmt.Sprintf("Overdraft risk on %s", risks.OverdraftDays[0])
	}
	return Message{To: p.Email, Subject: subject, Text: b.String()}, true
}

func displayName(p forecast.Profile) string {
	if p.Name != "" {
		return p.Name
	}
	return "there"
}

func money(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}
