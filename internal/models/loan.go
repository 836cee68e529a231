package models

// LoanSummary is the raw loan record returned by GET /customers/{userId}.
// Numeric fields arrive as strings on this endpoint, so they decode
// through Money's tolerant unmarshalling.
type LoanSummary struct {
	ID            int    `json:"id"`
	UserID        int    `json:"user_id"`
	AccountNumber string `json:"account_number"`
	IssueDate     string `json:"issue_date"`
	InterestRate  string `json:"interest_rate"` // percent, string on the wire
	TenureMonths  int    `json:"tenure"`
	EMIDue        Money  `json:"emi_due"`
	CreatedAt     string `json:"created_at"`
}

// Account is the full presentation record returned by
// GET /payments/{accountNumber}. All derived fields (outstanding amount,
// overdue flag) are server-computed and read-only on the client.
type Account struct {
	AccountNumber     string `json:"account_number"`
	CustomerName      string `json:"customer_name"`
	EMIAmount         Money  `json:"emi_amount"`
	OutstandingAmount Money  `json:"outstanding_amount"`
	EMIDueDate        int    `json:"emi_due_date"` // day of month
	IsOverdue         bool   `json:"is_overdue"`
}
