package models

import "time"

// Payment methods accepted by the backend.
const (
	MethodOnline       = "online"
	MethodBankTransfer = "bank_transfer"
	MethodCheque       = "cheque"
)

// PaymentDraft is a payment the user is composing. Amount stays as
// entered text until validation; the draft is reset to its zero value
// after a confirmed successful submission.
type PaymentDraft struct {
	AccountNumber string
	Amount        string
	Method        string
	Remarks       string
}

// NewPaymentDraft returns an empty draft with the default method selected.
func NewPaymentDraft() PaymentDraft {
	return PaymentDraft{Method: MethodOnline}
}

// PaymentRequest is the POST /payments body.
type PaymentRequest struct {
	AccountNumber string  `json:"account_number"`
	PaymentAmount Money   `json:"payment_amount"`
	PaymentMethod string  `json:"payment_method"`
	Remarks       *string `json:"remarks"` // nil when the user left remarks empty
}

// PaymentReceipt is the confirmed payment as reported by the backend.
type PaymentReceipt struct {
	TransactionID string    `json:"transaction_id"`
	PaymentAmount Money     `json:"payment_amount"`
	AccountNumber string    `json:"account_number"`
	CreatedAt     time.Time `json:"created_at"`
}
