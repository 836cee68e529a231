package payment

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/emicollect/client/internal/api"
	"github.com/emicollect/client/internal/models"
)

// MaxAmount is the flat per-payment ceiling: ₹10,00,000.
const MaxAmount = models.Money(1_000_000 * 100)

// minLookupLength is how many characters of an account number must be
// entered before the flow fetches account details.
const minLookupLength = 6

// User-facing failure reasons, one per violated rule.
var (
	ErrAccountRequired   = errors.New("please enter account number")
	ErrInvalidAmount     = errors.New("please enter a valid payment amount")
	ErrAmountTooLarge    = errors.New("payment amount cannot exceed ₹10,00,000")
	ErrInvalidMethod     = errors.New("please choose a valid payment method")
	ErrAccountNotFound   = errors.New("account not found, please check the account number and try again")
	ErrLookupFailed      = errors.New("failed to fetch account details")
	ErrNetwork           = errors.New("network error, please try again")
	ErrCancelled         = errors.New("payment cancelled")
	ErrAlreadyProcessing = errors.New("a payment is already being processed")
)

// Backend is the slice of the API client the flow depends on.
type Backend interface {
	LookupAccount(ctx context.Context, accountNumber string) (*models.Account, error)
	SubmitPayment(ctx context.Context, payment models.PaymentRequest) (*models.PaymentReceipt, error)
}

// Confirmer presents the explicit confirmation step. It receives the
// formatted amount and the target account number and reports whether the
// user confirmed.
type Confirmer interface {
	ConfirmPayment(formattedAmount, accountNumber string) bool
}

// Flow drives one payment screen instance: resolve an account, validate
// the draft, confirm, submit, reconcile. A Flow is safe for concurrent
// use; duplicate submissions are rejected by the in-flight guard.
type Flow struct {
	backend  Backend
	confirm  Confirmer
	validate *validator.Validate

	mu         sync.Mutex
	draft      models.PaymentDraft
	account    *models.Account
	prefilled  bool
	processing bool
}

// NewFlow creates a payment flow with an empty draft.
func NewFlow(backend Backend, confirm Confirmer) *Flow {
	return &Flow{
		backend:  backend,
		confirm:  confirm,
		validate: validator.New(),
		draft:    models.NewPaymentDraft(),
	}
}

// Prefill seeds the flow from a navigation-supplied account record. No
// lookup is performed for this instance afterwards; the record is taken
// as-is.
func (f *Flow) Prefill(account models.Account) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.account = &account
	f.prefilled = true
	f.draft.AccountNumber = account.AccountNumber
	f.draft.Amount = account.EMIAmount.Decimal()
}

// Draft returns a snapshot of the current draft.
func (f *Flow) Draft() models.PaymentDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// Account returns the resolved account details, or nil when none are shown.
func (f *Flow) Account() *models.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.account == nil {
		return nil
	}
	account := *f.account
	return &account
}

// SetAmount replaces the draft amount text.
func (f *Flow) SetAmount(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.Amount = text
}

// SetMethod selects the payment method.
func (f *Flow) SetMethod(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.Method = method
}

// SetRemarks replaces the free-text remarks.
func (f *Flow) SetRemarks(remarks string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.Remarks = remarks
}

// EnterAccountNumber is the manual resolution path. Input below the
// lookup threshold just clears any shown details; once it reaches the
// threshold, the account is fetched and the amount pre-filled with the
// current EMI due. A prefilled flow ignores entry entirely.
func (f *Flow) EnterAccountNumber(ctx context.Context, input string) (*models.Account, error) {
	f.mu.Lock()
	if f.prefilled {
		account := *f.account
		f.mu.Unlock()
		return &account, nil
	}
	input = strings.TrimSpace(input)
	f.draft.AccountNumber = input
	if len(input) < minLookupLength {
		f.account = nil
		f.mu.Unlock()
		return nil, nil
	}
	f.mu.Unlock()

	account, err := f.backend.LookupAccount(ctx, input)
	if err != nil {
		f.mu.Lock()
		f.account = nil
		f.mu.Unlock()
		if api.IsStatus(err, 404) {
			return nil, ErrAccountNotFound
		}
		if _, ok := api.ErrorMessage(err); ok {
			return nil, ErrLookupFailed
		}
		log.Printf("[PAYMENT] Account lookup failed: %v", err)
		return nil, ErrNetwork
	}

	f.mu.Lock()
	f.account = account
	f.draft.AccountNumber = input
	f.draft.Amount = account.EMIAmount.Decimal()
	f.mu.Unlock()
	return account, nil
}

type submission struct {
	AccountNumber string       `validate:"required"`
	Amount        models.Money `validate:"required,gt=0"`
	Method        string       `validate:"required,oneof=online bank_transfer cheque"`
}

// Validate checks the draft locally. It never touches the network and
// returns the specific rule violation, or nil when the draft is
// submittable.
func (f *Flow) Validate() error {
	_, err := f.buildSubmission()
	return err
}

func (f *Flow) buildSubmission() (submission, error) {
	draft := f.Draft()

	if strings.TrimSpace(draft.AccountNumber) == "" {
		return submission{}, ErrAccountRequired
	}

	amount, err := models.ParseMoney(draft.Amount)
	if err != nil {
		return submission{}, ErrInvalidAmount
	}
	if amount > MaxAmount {
		return submission{}, ErrAmountTooLarge
	}

	sub := submission{
		AccountNumber: strings.TrimSpace(draft.AccountNumber),
		Amount:        amount,
		Method:        draft.Method,
	}
	if err := f.validate.Struct(sub); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			switch fieldErrs[0].Field() {
			case "Amount":
				return submission{}, ErrInvalidAmount
			case "Method":
				return submission{}, ErrInvalidMethod
			}
		}
		return submission{}, ErrAccountRequired
	}
	return sub, nil
}

// Submit validates, confirms with the user and posts the payment. On
// success the whole draft is reset and the receipt returned. On any
// failure the draft stays populated for correction: the backend's error
// message is surfaced verbatim, transport failures as a generic notice.
func (f *Flow) Submit(ctx context.Context) (*models.PaymentReceipt, error) {
	sub, err := f.buildSubmission()
	if err != nil {
		return nil, err
	}

	if !f.confirm.ConfirmPayment(sub.Amount.FormatINR(), sub.AccountNumber) {
		return nil, ErrCancelled
	}

	f.mu.Lock()
	if f.processing {
		f.mu.Unlock()
		return nil, ErrAlreadyProcessing
	}
	f.processing = true
	remarks := strings.TrimSpace(f.draft.Remarks)
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.processing = false
		f.mu.Unlock()
	}()

	request := models.PaymentRequest{
		AccountNumber: sub.AccountNumber,
		PaymentAmount: sub.Amount,
		PaymentMethod: sub.Method,
	}
	if remarks != "" {
		request.Remarks = &remarks
	}

	receipt, err := f.backend.SubmitPayment(ctx, request)
	if err != nil {
		if msg, ok := api.ErrorMessage(err); ok {
			log.Printf("[PAYMENT] Payment rejected: %s", msg)
			return nil, errors.New(msg)
		}
		log.Printf("[PAYMENT] Payment submission failed: %v", err)
		return nil, ErrNetwork
	}

	log.Printf("[PAYMENT] Payment successful, transaction %s", receipt.TransactionID)
	f.Reset()
	return receipt, nil
}

// Reset returns the flow to its initial state: empty draft, no resolved
// account, manual entry re-enabled.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft = models.NewPaymentDraft()
	f.account = nil
	f.prefilled = false
}
