package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction statuses. A record is created as StatusInitiated before any
// network call and promoted to StatusPending only after the gateway accepts
// the initialization. Settlement states are driven by flows outside this
// service and never set here.
const (
	StatusInitiated = "initiated"
	StatusPending   = "pending"
)

// Customization holds the display fields forwarded to the gateway's
// checkout page.
type Customization struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Amount is the raw amount value from the request body. It accepts both a
// JSON number and a quoted decimal string, and defers parsing to the
// validator so an unparseable amount is reported as a validation failure
// alongside any other violations, not as a malformed body.
type Amount string

func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = Amount(s)
		return nil
	}
	// Bare number, or any other token. The validator owns deciding whether
	// it parses.
	*a = Amount(data)
	return nil
}

func (a Amount) String() string { return string(a) }

// InitiateRequest is the DTO for incoming HTTP requests.
type InitiateRequest struct {
	Amount        Amount            `json:"amount"`
	Currency      string            `json:"currency"`
	Email         string            `json:"email"`
	FirstName     string            `json:"first_name,omitempty"`
	LastName      string            `json:"last_name,omitempty"`
	CallbackURL   string            `json:"callback_url"`
	ReturnURL     string            `json:"return_url,omitempty"`
	OrderID       string            `json:"order_id,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Customization Customization     `json:"customization,omitempty"`
}

// StatusEntry is one element of a record's append-only status history.
type StatusEntry struct {
	Status        string    `json:"status"`
	At            time.Time `json:"at"`
	Detail        string    `json:"detail,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// TransactionRecord is the ledger value for one transaction reference.
type TransactionRecord struct {
	Reference       string            `json:"reference"`
	Amount          decimal.Decimal   `json:"amount"`
	Currency        string            `json:"currency"`
	Email           string            `json:"email"`
	FirstName       string            `json:"first_name,omitempty"`
	LastName        string            `json:"last_name,omitempty"`
	Status          string            `json:"status"`
	History         []StatusEntry     `json:"history"`
	RequestedAt     time.Time         `json:"requested_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	VerifyAttempts  int               `json:"verify_attempts"`
	LastError       string            `json:"last_error,omitempty"`
	GatewayResponse json.RawMessage   `json:"gateway_response,omitempty"`
	Fee             decimal.Decimal   `json:"fee"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	CorrelationID   string            `json:"correlation_id"`
}

// InitiateResponse is the canonical success response for an initiation.
type InitiateResponse struct {
	CheckoutURL   string          `json:"checkout_url"`
	Reference     string          `json:"reference"`
	CorrelationID string          `json:"correlation_id"`
	Status        string          `json:"status"`
	Fee           decimal.Decimal `json:"fee"`
}
