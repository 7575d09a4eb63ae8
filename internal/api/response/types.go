package response

import (
	"time"

	"github.com/mcoot/expense-tracker-go/internal/model"
)

// Identity is the public projection of an identity. It never carries the
// password hash.
type Identity struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	DisplayName     string    `json:"display_name"`
	Gender          string    `json:"gender"`
	ProfileImageURL string    `json:"profile_image_url"`
	CreatedAt       time.Time `json:"created_at"`
}

// IdentityFromModel converts a model.Identity to a response Identity
func IdentityFromModel(i *model.Identity) Identity {
	return Identity{
		ID:              string(i.ID),
		Username:        i.Username,
		DisplayName:     i.DisplayName,
		Gender:          string(i.Gender),
		ProfileImageURL: i.ProfileImageURL,
		CreatedAt:       i.CreatedAt,
	}
}

// IdentitiesFromModel converts a list of identities
func IdentitiesFromModel(ids []*model.Identity) []Identity {
	out := make([]Identity, len(ids))
	for i, id := range ids {
		out[i] = IdentityFromModel(id)
	}
	return out
}

// AuthResponse is the response for signup and login. The session token is
// only ever sent in the cookie.
type AuthResponse struct {
	Identity Identity `json:"identity"`
}

// MeResponse is the response for the current identity; Identity is null
// when the request is anonymous
type MeResponse struct {
	Identity *Identity `json:"identity"`
}

// MessageResponse carries a human readable confirmation
type MessageResponse struct {
	Message string `json:"message"`
}

// LogoutAllResponse reports how many sessions were ended
type LogoutAllResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// IdentityList is the response for listing identities
type IdentityList struct {
	Identities []Identity `json:"identities"`
}

// Transaction represents a transaction in API responses
type Transaction struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	PaymentType string    `json:"payment_type"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	Location    string    `json:"location"`
	Date        time.Time `json:"date"`
}

// TransactionFromModel converts a model.Transaction
func TransactionFromModel(tx *model.Transaction) Transaction {
	return Transaction{
		ID:          string(tx.ID),
		Description: tx.Description,
		PaymentType: string(tx.PaymentType),
		Category:    string(tx.Category),
		Amount:      tx.Amount,
		Location:    tx.Location,
		Date:        tx.Date,
	}
}

// TransactionList is the response for listing transactions
type TransactionList struct {
	Transactions []Transaction `json:"transactions"`
}

// TransactionListFromModel converts a list of transactions
func TransactionListFromModel(txs []*model.Transaction) TransactionList {
	out := make([]Transaction, len(txs))
	for i, tx := range txs {
		out[i] = TransactionFromModel(tx)
	}
	return TransactionList{Transactions: out}
}

// CategoryTotal is the summed amount for one category
type CategoryTotal struct {
	Category    string  `json:"category"`
	TotalAmount float64 `json:"total_amount"`
}

// CategoryStatistics is the response for per-category totals
type CategoryStatistics struct {
	Categories []CategoryTotal `json:"categories"`
}

// CategoryStatisticsFromModel converts category totals
func CategoryStatisticsFromModel(totals []model.CategoryTotal) CategoryStatistics {
	out := make([]CategoryTotal, len(totals))
	for i, t := range totals {
		out[i] = CategoryTotal{Category: string(t.Category), TotalAmount: t.TotalAmount}
	}
	return CategoryStatistics{Categories: out}
}

// Health is the response for the health check
type Health struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}
