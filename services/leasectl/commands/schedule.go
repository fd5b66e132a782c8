package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/pavitra93/go-lease-management/shared/billing"
	"github.com/pavitra93/go-lease-management/shared/models"
)

// ScheduleCmd previews the invoices a contract would get, without touching the database
func ScheduleCmd(app *App) *cobra.Command {
	var (
		start, end, rent, paymentType string
		duration                      int
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Preview the invoice schedule of a contract",
		RunE: func(cmd *cobra.Command, args []string) error {
			startDate, err := parseDay(start)
			if err != nil {
				return err
			}
			endDate, err := parseDay(end)
			if err != nil {
				return err
			}
			amount, err := decimal.NewFromString(rent)
			if err != nil {
				return fmt.Errorf("invalid rent %q: %w", rent, err)
			}
			pt := models.PaymentType(paymentType)
			if normalized, ok := models.ParsePaymentType(paymentType); ok {
				pt = normalized
			}

			invoices := billing.PlanInvoices(models.Contract{
				StartDate:      startDate,
				EndDate:        endDate,
				DurationMonths: duration,
				RentAmount:     amount,
				PaymentType:    pt,
			})

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "#\tDATE ISSUED\tAMOUNT")
			total := decimal.Zero
			for i, inv := range invoices {
				fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, inv.DateIssued.Format(models.DateLayout), inv.Amount.StringFixed(2))
				total = total.Add(inv.Amount)
			}
			fmt.Fprintf(w, "\tTOTAL\t%s\n", total.StringFixed(2))
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "end date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&duration, "duration", 12, "duration in months")
	cmd.Flags().StringVar(&rent, "rent", "", "annual rent amount")
	cmd.Flags().StringVar(&paymentType, "payment-type", string(models.PaymentMonthly), "monthly, quarterly, semi-annual or annual")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	_ = cmd.MarkFlagRequired("rent")
	return cmd
}
