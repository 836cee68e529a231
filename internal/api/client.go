package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/emicollect/client/internal/models"
)

const maxResponseBytes = 1 << 20 // 1 MB

// TokenSource supplies the current bearer token for authorized requests.
// An empty token means no Authorization header is sent.
type TokenSource interface {
	Token() string
}

// Client is a thin wrapper over the collection backend's REST API.
// It performs no retries; a failed call is reported once and retried
// only on explicit user action.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// New creates a backend client. The token source is attached separately
// because the session manager that owns tokens is itself built on top of
// this client.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetTokenSource attaches the provider of bearer tokens for authorized
// endpoints. Must be called before any authorized request is issued.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	return req, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.tokens == nil {
		return
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeAPIError(resp.StatusCode, body)
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// VerifyResponse is the GET /auth/verify payload.
type VerifyResponse struct {
	Valid bool        `json:"valid"`
	User  models.User `json:"user"`
}

// VerifyToken checks a candidate token against the backend. The token is
// passed explicitly because restore runs before it becomes the current one.
func (c *Client) VerifyToken(ctx context.Context, token string) (*VerifyResponse, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/auth/verify", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var out VerifyResponse
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AuthResponse is the shared login/register success payload.
type AuthResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Login exchanges credentials for a token and user record.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	var out AuthResponse
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates a new user account; success semantics mirror Login.
func (c *Client) Register(ctx context.Context, name, email, password string) (*AuthResponse, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	var out AuthResponse
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListLoans fetches the user's loan records. The endpoint returns either
// an array or a single object depending on how many loans the user holds,
// so both shapes are accepted.
func (c *Client) ListLoans(ctx context.Context, userID int) ([]models.LoanSummary, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/customers/%d", userID), nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	var raw json.RawMessage
	if err := c.doJSON(req, &raw); err != nil {
		return nil, err
	}

	if len(raw) > 0 && raw[0] == '[' {
		var loans []models.LoanSummary
		if err := json.Unmarshal(raw, &loans); err != nil {
			return nil, fmt.Errorf("decoding response: %w", err)
		}
		return loans, nil
	}

	var loan models.LoanSummary
	if err := json.Unmarshal(raw, &loan); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return []models.LoanSummary{loan}, nil
}

// LookupAccount fetches the full account record for one account number.
func (c *Client) LookupAccount(ctx context.Context, accountNumber string) (*models.Account, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/payments/"+accountNumber, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	var out struct {
		Customer models.Account `json:"customer"`
	}
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return &out.Customer, nil
}

// SubmitPayment posts one EMI payment. No idempotency key is attached;
// duplicate suppression is the backend's responsibility.
func (c *Client) SubmitPayment(ctx context.Context, payment models.PaymentRequest) (*models.PaymentReceipt, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/payments", payment)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	var out struct {
		Payment models.PaymentReceipt `json:"payment"`
	}
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return &out.Payment, nil
}
