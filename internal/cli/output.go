package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mcoot/expense-tracker-go/internal/api/response"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		o.printJSON(response.MessageResponse{Message: msg})
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Identity:
		o.printIdentity(v)
	case response.AuthResponse:
		fmt.Fprintln(o.w, "Logged in")
		o.printIdentity(v.Identity)
	case response.MeResponse:
		if v.Identity == nil {
			fmt.Fprintln(o.w, "Not logged in")
			return
		}
		o.printIdentity(*v.Identity)
	case response.MessageResponse:
		fmt.Fprintln(o.w, v.Message)
	case response.LogoutAllResponse:
		fmt.Fprintf(o.w, "%s (%d sessions)\n", v.Message, v.Count)
	case response.IdentityList:
		o.printIdentities(v.Identities)
	case response.Transaction:
		o.printTransaction(v)
	case response.TransactionList:
		o.printTransactions(v.Transactions)
	case response.CategoryStatistics:
		o.printStatistics(v)
	case response.Health:
		fmt.Fprintf(o.w, "Status: %s\nStorage: %s\n", v.Status, v.Storage)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printIdentity(i response.Identity) {
	fmt.Fprintf(o.w, "User: %s (%s)\n", i.DisplayName, i.Username)
	fmt.Fprintf(o.w, "ID: %s\n", i.ID)
	fmt.Fprintf(o.w, "Avatar: %s\n", i.ProfileImageURL)
}

func (o *Output) printIdentities(ids []response.Identity) {
	if len(ids) == 0 {
		fmt.Fprintln(o.w, "No users")
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USERNAME\tNAME\tID")
	for _, i := range ids {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", i.Username, i.DisplayName, i.ID)
	}
	_ = tw.Flush()
}

func (o *Output) printTransaction(t response.Transaction) {
	fmt.Fprintf(o.w, "Transaction: %s\n", t.ID)
	fmt.Fprintf(o.w, "Description: %s\n", t.Description)
	fmt.Fprintf(o.w, "Amount: %.2f\n", t.Amount)
	fmt.Fprintf(o.w, "Category: %s\n", t.Category)
	fmt.Fprintf(o.w, "Payment: %s\n", t.PaymentType)
	fmt.Fprintf(o.w, "Location: %s\n", t.Location)
	fmt.Fprintf(o.w, "Date: %s\n", t.Date.Format(dateLayout))
}

func (o *Output) printTransactions(txs []response.Transaction) {
	if len(txs) == 0 {
		fmt.Fprintln(o.w, "No transactions")
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tAMOUNT\tCATEGORY\tDESCRIPTION\tID")
	for _, t := range txs {
		fmt.Fprintf(tw, "%s\t%.2f\t%s\t%s\t%s\n", t.Date.Format(dateLayout), t.Amount, t.Category, t.Description, t.ID)
	}
	_ = tw.Flush()
}

func (o *Output) printStatistics(s response.CategoryStatistics) {
	if len(s.Categories) == 0 {
		fmt.Fprintln(o.w, "No transactions")
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tTOTAL")
	for _, c := range s.Categories {
		fmt.Fprintf(tw, "%s\t%.2f\n", c.Category, c.TotalAmount)
	}
	_ = tw.Flush()
}
