package payment

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emicollect/client/internal/api"
	"github.com/emicollect/client/internal/models"
)

type stubBackend struct {
	lookups     atomic.Int64
	submissions atomic.Int64
	lookupFn    func(accountNumber string) (*models.Account, error)
	submitFn    func(payment models.PaymentRequest) (*models.PaymentReceipt, error)
}

func (s *stubBackend) LookupAccount(ctx context.Context, accountNumber string) (*models.Account, error) {
	s.lookups.Add(1)
	return s.lookupFn(accountNumber)
}

func (s *stubBackend) SubmitPayment(ctx context.Context, payment models.PaymentRequest) (*models.PaymentReceipt, error) {
	s.submissions.Add(1)
	return s.submitFn(payment)
}

type stubConfirmer struct {
	confirm     bool
	calls       int
	lastAmount  string
	lastAccount string
}

func (c *stubConfirmer) ConfirmPayment(formattedAmount, accountNumber string) bool {
	c.calls++
	c.lastAmount = formattedAmount
	c.lastAccount = accountNumber
	return c.confirm
}

var testAccount = models.Account{
	AccountNumber:     "LN100200",
	CustomerName:      "Asha Verma",
	EMIAmount:         models.Money(500000),
	OutstandingAmount: models.Money(25000000),
	EMIDueDate:        5,
}

func newTestFlow(backend *stubBackend, confirm bool) (*Flow, *stubConfirmer) {
	confirmer := &stubConfirmer{confirm: confirm}
	return NewFlow(backend, confirmer), confirmer
}

func TestFlow_Validate(t *testing.T) {
	backend := &stubBackend{
		submitFn: func(models.PaymentRequest) (*models.PaymentReceipt, error) {
			return &models.PaymentReceipt{}, nil
		},
	}

	cases := []struct {
		name    string
		account string
		amount  string
		method  string
		want    error
	}{
		{"missing account number", "", "5000", models.MethodOnline, ErrAccountRequired},
		{"non-numeric amount", "LN100200", "abc", models.MethodOnline, ErrInvalidAmount},
		{"zero amount", "LN100200", "0", models.MethodOnline, ErrInvalidAmount},
		{"negative amount", "LN100200", "-500", models.MethodOnline, ErrInvalidAmount},
		{"amount over ceiling", "LN100200", "2000000", models.MethodOnline, ErrAmountTooLarge},
		{"unknown method", "LN100200", "5000", "upi", ErrInvalidMethod},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			flow, confirmer := newTestFlow(backend, true)
			flow.SetAmount(tc.amount)
			flow.SetMethod(tc.method)
			if tc.account != "" {
				flow.Prefill(models.Account{AccountNumber: tc.account, EMIAmount: 1})
				flow.SetAmount(tc.amount)
			}

			assert.ErrorIs(t, flow.Validate(), tc.want)

			_, err := flow.Submit(context.Background())
			assert.ErrorIs(t, err, tc.want)
			assert.Zero(t, backend.submissions.Load(), "no request may leave the device")
			assert.Zero(t, confirmer.calls, "confirmation only after validation")
		})
	}

	t.Run("amount exactly at the ceiling passes", func(t *testing.T) {
		flow, _ := newTestFlow(backend, true)
		flow.Prefill(testAccount)
		flow.SetAmount("1000000")
		assert.NoError(t, flow.Validate())
	})
}

func TestFlow_Prefill(t *testing.T) {
	backend := &stubBackend{}
	flow, _ := newTestFlow(backend, true)

	flow.Prefill(testAccount)

	draft := flow.Draft()
	assert.Equal(t, testAccount.AccountNumber, draft.AccountNumber)
	amount, err := models.ParseMoney(draft.Amount)
	assert.NoError(t, err)
	assert.Equal(t, testAccount.EMIAmount, amount)
	assert.Equal(t, models.MethodOnline, draft.Method)

	// a prefilled flow never fetches account details
	account, err := flow.EnterAccountNumber(context.Background(), "LN999999")
	assert.NoError(t, err)
	assert.Equal(t, testAccount.AccountNumber, account.AccountNumber)
	assert.Zero(t, backend.lookups.Load())
}

func TestFlow_EnterAccountNumber(t *testing.T) {
	t.Run("below threshold clears details without a fetch", func(t *testing.T) {
		backend := &stubBackend{lookupFn: func(string) (*models.Account, error) {
			account := testAccount
			return &account, nil
		}}
		flow, _ := newTestFlow(backend, true)

		account, err := flow.EnterAccountNumber(context.Background(), "LN100200")
		assert.NoError(t, err)
		assert.NotNil(t, account)
		assert.Equal(t, int64(1), backend.lookups.Load())

		account, err = flow.EnterAccountNumber(context.Background(), "LN1")
		assert.NoError(t, err)
		assert.Nil(t, account)
		assert.Nil(t, flow.Account(), "previously shown details are cleared")
		assert.Equal(t, int64(1), backend.lookups.Load())
	})

	t.Run("hit pre-fills the amount with the EMI due", func(t *testing.T) {
		backend := &stubBackend{lookupFn: func(string) (*models.Account, error) {
			account := testAccount
			return &account, nil
		}}
		flow, _ := newTestFlow(backend, true)

		_, err := flow.EnterAccountNumber(context.Background(), "LN100200")
		assert.NoError(t, err)

		draft := flow.Draft()
		assert.Equal(t, "LN100200", draft.AccountNumber)
		assert.Equal(t, testAccount.EMIAmount.Decimal(), draft.Amount)
	})

	t.Run("miss reports not found and clears details", func(t *testing.T) {
		calls := 0
		backend := &stubBackend{lookupFn: func(string) (*models.Account, error) {
			calls++
			if calls == 1 {
				account := testAccount
				return &account, nil
			}
			return nil, &api.APIError{Status: http.StatusNotFound, Message: "Account not found"}
		}}
		flow, _ := newTestFlow(backend, true)

		_, err := flow.EnterAccountNumber(context.Background(), "LN100200")
		assert.NoError(t, err)
		assert.NotNil(t, flow.Account())

		_, err = flow.EnterAccountNumber(context.Background(), "LN999999")
		assert.ErrorIs(t, err, ErrAccountNotFound)
		assert.Nil(t, flow.Account())
	})

	t.Run("transport failure is a generic network notice", func(t *testing.T) {
		backend := &stubBackend{lookupFn: func(string) (*models.Account, error) {
			return nil, errors.New("connection refused")
		}}
		flow, _ := newTestFlow(backend, true)

		_, err := flow.EnterAccountNumber(context.Background(), "LN100200")
		assert.ErrorIs(t, err, ErrNetwork)
	})
}

func TestFlow_Submit(t *testing.T) {
	t.Run("success resets the whole draft", func(t *testing.T) {
		var got models.PaymentRequest
		backend := &stubBackend{submitFn: func(payment models.PaymentRequest) (*models.PaymentReceipt, error) {
			got = payment
			return &models.PaymentReceipt{TransactionID: "TXN-1", PaymentAmount: payment.PaymentAmount}, nil
		}}
		flow, confirmer := newTestFlow(backend, true)

		flow.Prefill(testAccount)
		flow.SetRemarks("   ")

		receipt, err := flow.Submit(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, "TXN-1", receipt.TransactionID)

		assert.Equal(t, "LN100200", got.AccountNumber)
		assert.Equal(t, testAccount.EMIAmount, got.PaymentAmount)
		assert.Equal(t, models.MethodOnline, got.PaymentMethod)
		assert.Nil(t, got.Remarks, "whitespace remarks normalize to absent")

		assert.Equal(t, 1, confirmer.calls)
		assert.Equal(t, "₹5,000.00", confirmer.lastAmount)
		assert.Equal(t, "LN100200", confirmer.lastAccount)

		assert.Equal(t, models.NewPaymentDraft(), flow.Draft())
		assert.Nil(t, flow.Account())
	})

	t.Run("cancellation leaves the draft untouched", func(t *testing.T) {
		backend := &stubBackend{}
		flow, _ := newTestFlow(backend, false)

		flow.Prefill(testAccount)
		flow.SetRemarks("June EMI")
		before := flow.Draft()

		_, err := flow.Submit(context.Background())
		assert.ErrorIs(t, err, ErrCancelled)
		assert.Zero(t, backend.submissions.Load())
		assert.Equal(t, before, flow.Draft())
	})

	t.Run("business rejection surfaces verbatim and keeps the draft", func(t *testing.T) {
		backend := &stubBackend{submitFn: func(models.PaymentRequest) (*models.PaymentReceipt, error) {
			return nil, &api.APIError{Status: http.StatusUnprocessableEntity, Message: "Insufficient account standing"}
		}}
		flow, _ := newTestFlow(backend, true)

		flow.Prefill(testAccount)
		before := flow.Draft()

		_, err := flow.Submit(context.Background())
		assert.EqualError(t, err, "Insufficient account standing")
		assert.Equal(t, before, flow.Draft())
		assert.NotNil(t, flow.Account())
	})

	t.Run("transport failure keeps the draft", func(t *testing.T) {
		backend := &stubBackend{submitFn: func(models.PaymentRequest) (*models.PaymentReceipt, error) {
			return nil, errors.New("connection reset")
		}}
		flow, _ := newTestFlow(backend, true)

		flow.Prefill(testAccount)
		before := flow.Draft()

		_, err := flow.Submit(context.Background())
		assert.ErrorIs(t, err, ErrNetwork)
		assert.Equal(t, before, flow.Draft())
	})

	t.Run("at most one submission is in flight", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		backend := &stubBackend{submitFn: func(payment models.PaymentRequest) (*models.PaymentReceipt, error) {
			close(started)
			<-release
			return &models.PaymentReceipt{TransactionID: "TXN-1"}, nil
		}}
		flow, _ := newTestFlow(backend, true)
		flow.Prefill(testAccount)

		done := make(chan error, 1)
		go func() {
			_, err := flow.Submit(context.Background())
			done <- err
		}()

		<-started
		_, err := flow.Submit(context.Background())
		assert.ErrorIs(t, err, ErrAlreadyProcessing)

		close(release)
		assert.NoError(t, <-done)
		assert.Equal(t, int64(1), backend.submissions.Load())
	})
}
