package cli

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/expense-tracker-go/internal/api/request"
	"github.com/mcoot/expense-tracker-go/internal/api/response"
)

const dateLayout = "2006-01-02"

func newTxCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Transaction commands",
	}

	cmd.AddCommand(newTxAddCmd(a))
	cmd.AddCommand(newTxListCmd(a))
	cmd.AddCommand(newTxGetCmd(a))
	cmd.AddCommand(newTxUpdateCmd(a))
	cmd.AddCommand(newTxDeleteCmd(a))
	cmd.AddCommand(newTxStatsCmd(a))

	return cmd
}

// parseDate accepts a calendar date or an RFC 3339 timestamp
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}

func txPath(id string) string {
	return "/api/v1/transactions/" + url.PathEscape(id)
}

func newTxAddCmd(a *app) *cobra.Command {
	var req request.CreateTransactionRequest
	var date string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if date == "" {
				req.Date = time.Now().UTC().Truncate(24 * time.Hour)
			} else {
				d, err := parseDate(date)
				if err != nil {
					return err
				}
				req.Date = d
			}

			var result response.Transaction
			if err := a.client.Post("/api/v1/transactions", req, &result); err != nil {
				return err
			}

			a.output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Description, "description", "", "Description (required)")
	cmd.Flags().StringVar(&req.PaymentType, "payment", "", "Payment type, e.g. cash, card (required)")
	cmd.Flags().StringVar(&req.Category, "category", "", "Category, e.g. food, rent (required)")
	cmd.Flags().Float64Var(&req.Amount, "amount", 0, "Amount (required)")
	cmd.Flags().StringVar(&req.Location, "location", "", "Location")
	cmd.Flags().StringVar(&date, "date", "", "Date as YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("payment")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newTxListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.TransactionList

			if err := a.client.Get("/api/v1/transactions", &result); err != nil {
				return err
			}

			a.output(cmd).Print(result)
			return nil
		},
	}
}

func newTxGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Transaction

			if err := a.client.Get(txPath(args[0]), &result); err != nil {
				return err
			}

			a.output(cmd).Print(result)
			return nil
		},
	}
}

func newTxUpdateCmd(a *app) *cobra.Command {
	var (
		description, payment, category, location, date string
		amount                                         float64
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req request.UpdateTransactionRequest
			flags := cmd.Flags()

			if flags.Changed("description") {
				req.Description = &description
			}
			if flags.Changed("payment") {
				req.PaymentType = &payment
			}
			if flags.Changed("category") {
				req.Category = &category
			}
			if flags.Changed("amount") {
				req.Amount = &amount
			}
			if flags.Changed("location") {
				req.Location = &location
			}
			if flags.Changed("date") {
				d, err := parseDate(date)
				if err != nil {
					return err
				}
				req.Date = &d
			}

			var result response.Transaction
			if err := a.client.Patch(txPath(args[0]), req, &result); err != nil {
				return err
			}

			a.output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&payment, "payment", "", "Payment type")
	cmd.Flags().StringVar(&category, "category", "", "Category")
	cmd.Flags().Float64Var(&amount, "amount", 0, "Amount")
	cmd.Flags().StringVar(&location, "location", "", "Location")
	cmd.Flags().StringVar(&date, "date", "", "Date as YYYY-MM-DD")

	return cmd
}

func newTxDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Transaction

			if err := a.client.Delete(txPath(args[0]), &result); err != nil {
				return err
			}

			a.output(cmd).PrintMessage(fmt.Sprintf("Deleted transaction %s", result.ID))
			return nil
		},
	}
}

func newTxStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show totals per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.CategoryStatistics

			if err := a.client.Get("/api/v1/transactions/stats", &result); err != nil {
				return err
			}

			a.output(cmd).Print(result)
			return nil
		},
	}
}
