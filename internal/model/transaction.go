package model

import "time"

// TransactionID uniquely identifies a transaction
type TransactionID string

// PaymentType is how a transaction was paid
type PaymentType string

const (
	PaymentCash          PaymentType = "cash"
	PaymentCard          PaymentType = "card"
	PaymentBankTransfer  PaymentType = "bank transfer"
	PaymentCheque        PaymentType = "cheque"
	PaymentOnlineWallet  PaymentType = "online wallet"
	PaymentMobileBanking PaymentType = "mobile banking"
	PaymentCrypto        PaymentType = "cryptocurrency"
	PaymentExchange      PaymentType = "exchange"
	PaymentLoan          PaymentType = "loan/readycash"
	PaymentInstallments  PaymentType = "installments"
	PaymentOther         PaymentType = "other"
)

var paymentTypes = map[PaymentType]bool{
	PaymentCash: true, PaymentCard: true, PaymentBankTransfer: true, PaymentCheque: true,
	PaymentOnlineWallet: true, PaymentMobileBanking: true, PaymentCrypto: true,
	PaymentExchange: true, PaymentLoan: true, PaymentInstallments: true, PaymentOther: true,
}

// Valid reports whether p is a known payment type
func (p PaymentType) Valid() bool {
	return paymentTypes[p]
}

// Category classifies a transaction
type Category string

var categories = map[Category]bool{
	"salary": true, "saving": true, "investment": true, "business income": true, "bonus": true,
	"expense": true, "shopping": true, "food": true, "entertainment": true, "bills": true,
	"utilities": true, "transport": true, "fuel": true, "travel": true, "rent": true,
	"installments": true, "loan payment": true, "education": true, "health": true, "insurance": true,
	"gift": true, "charity": true, "tax": true, "other": true,
}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	return categories[c]
}

// DefaultLocation is used when a transaction is recorded without a location
const DefaultLocation = "Unknown"

// Transaction is a single categorized money movement owned by an identity
type Transaction struct {
	ID          TransactionID
	IdentityID  IdentityID
	Description string
	PaymentType PaymentType
	Category    Category
	Amount      float64
	Location    string
	Date        time.Time
}

// CategoryTotal is the summed amount of an identity's transactions in one category
type CategoryTotal struct {
	Category    Category
	TotalAmount float64
}
