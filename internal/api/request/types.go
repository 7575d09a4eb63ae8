package request

import "time"

// SignUpRequest is the request body for creating an account
type SignUpRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
	Gender      string `json:"gender"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateTransactionRequest is the request body for recording a transaction
type CreateTransactionRequest struct {
	Description string    `json:"description"`
	PaymentType string    `json:"payment_type"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	Location    string    `json:"location,omitempty"`
	Date        time.Time `json:"date"`
}

// UpdateTransactionRequest is the request body for patching a transaction.
// Omitted fields are left unchanged.
type UpdateTransactionRequest struct {
	Description *string    `json:"description,omitempty"`
	PaymentType *string    `json:"payment_type,omitempty"`
	Category    *string    `json:"category,omitempty"`
	Amount      *float64   `json:"amount,omitempty"`
	Location    *string    `json:"location,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
}
