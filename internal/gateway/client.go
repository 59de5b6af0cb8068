// Package gateway wraps the single outbound call to the payment gateway's
// transaction-initialization endpoint. It is intentionally single-shot: the
// retry policy lives in the retry package so each can be tested alone.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "payinit_gateway_attempts_total",
	Help: "Gateway initialization attempts, labeled by outcome",
}, []string{"outcome"})

// ErrorKind classifies a failed initialization attempt.
type ErrorKind string

const (
	// KindTimeout covers attempts that exceeded the per-call deadline.
	KindTimeout ErrorKind = "timeout"
	// KindTransport covers network-level failures below HTTP.
	KindTransport ErrorKind = "transport"
	// KindStatus covers non-2xx HTTP responses from the gateway.
	KindStatus ErrorKind = "status"
	// KindContract covers 2xx responses missing the expected checkout URL
	// or carrying an undecodable body.
	KindContract ErrorKind = "contract"
)

// Error is a classified gateway failure. Retryable failures are transient
// conditions worth another attempt; a contract violation or a 4xx rejection
// is deterministic and retrying it only burns the attempt budget.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gateway %s error (HTTP %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("gateway %s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsRetryable reports whether another attempt could plausibly succeed.
func (e *Error) IsRetryable() bool { return e.Retryable }

// InitializeRequest is the gateway's transaction-initialization payload.
// Amount is a string at the wire level.
type InitializeRequest struct {
	Amount        string            `json:"amount"`
	Currency      string            `json:"currency"`
	Email         string            `json:"email"`
	FirstName     string            `json:"first_name,omitempty"`
	LastName      string            `json:"last_name,omitempty"`
	TxRef         string            `json:"tx_ref"`
	CallbackURL   string            `json:"callback_url"`
	ReturnURL     string            `json:"return_url,omitempty"`
	Customization map[string]string `json:"customization,omitempty"`
}

// InitializeResponse is the gateway's success envelope. Data.CheckoutURL is
// the field the whole flow exists to obtain; its absence is a contract
// error even when the HTTP call itself succeeded.
type InitializeResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		CheckoutURL string `json:"checkout_url"`
	} `json:"data"`
	Raw json.RawMessage `json:"-"`
}

type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		http:      &http.Client{Timeout: timeout},
	}
}

// Initialize performs one transaction-initialization attempt against the
// gateway. The error, if any, is always a *Error.
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResponse, error) {
	resp, err := c.initialize(ctx, req)
	if err != nil {
		var ge *Error
		if errors.As(err, &ge) {
			attemptsTotal.WithLabelValues(string(ge.Kind)).Inc()
		}
		return nil, err
	}
	attemptsTotal.WithLabelValues("ok").Inc()
	return resp, nil
}

func (c *Client) initialize(ctx context.Context, req InitializeRequest) (*InitializeResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &Error{Kind: KindContract, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: KindTransport, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		kind := KindTransport
		if isTimeout(err) {
			kind = KindTimeout
		}
		return nil, &Error{Kind: kind, Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Retryable: true, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Kind:       KindStatus,
			StatusCode: resp.StatusCode,
			Retryable:  resp.StatusCode >= 500,
			Err:        fmt.Errorf("unexpected gateway status: %s", resp.Status),
		}
	}

	var out InitializeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &Error{Kind: KindContract, StatusCode: resp.StatusCode, Err: err}
	}
	if out.Data.CheckoutURL == "" {
		return nil, &Error{
			Kind:       KindContract,
			StatusCode: resp.StatusCode,
			Err:        errors.New("response missing checkout_url"),
		}
	}
	out.Raw = raw
	return &out, nil
}

func isTimeout(err error) bool {
	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
