// Package service orchestrates payment initiation: validation, reference
// derivation, the duplicate guard, fee computation, the retried gateway
// call and the ledger writes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/punchamoorthee/payinit/internal/domain"
	"github.com/punchamoorthee/payinit/internal/fee"
	"github.com/punchamoorthee/payinit/internal/gateway"
	"github.com/punchamoorthee/payinit/internal/ledger"
	"github.com/punchamoorthee/payinit/internal/retry"
	"github.com/punchamoorthee/payinit/internal/validate"
)

var (
	ErrDuplicateTransaction = errors.New("transaction reference already exists")
	ErrGatewayContract      = errors.New("gateway returned an incomplete response")
	ErrGatewayUnavailable   = errors.New("gateway initialization failed")
)

// Initializer is the single outbound gateway operation the service needs.
type Initializer interface {
	Initialize(ctx context.Context, req gateway.InitializeRequest) (*gateway.InitializeResponse, error)
}

type Initiation struct {
	ledger      ledger.Ledger
	gateway     Initializer
	maxAttempts int
	retryDelay  time.Duration
}

func NewInitiation(l ledger.Ledger, g Initializer, maxAttempts int, retryDelay time.Duration) *Initiation {
	return &Initiation{ledger: l, gateway: g, maxAttempts: maxAttempts, retryDelay: retryDelay}
}

// Initiate runs one payment initiation end to end. correlationID is the
// per-request id the API layer generated; it is threaded into every history
// entry and log line. Validation and duplicate failures return before any
// network call.
func (s *Initiation) Initiate(ctx context.Context, req domain.InitiateRequest, correlationID string) (*domain.InitiateResponse, error) {
	amount, err := validate.Request(req)
	if err != nil {
		return nil, err
	}

	reference := req.OrderID
	if reference == "" {
		reference = generateReference()
	}
	if req.ReturnURL == "" {
		req.ReturnURL = req.CallbackURL
	}

	feeAmount := fee.Compute(amount)
	now := time.Now().UTC()

	rec := domain.TransactionRecord{
		Reference:   reference,
		Amount:      amount,
		Currency:    req.Currency,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Status:      domain.StatusInitiated,
		RequestedAt: now,
		UpdatedAt:   now,
		Fee:         feeAmount,
		Metadata:    req.Metadata,
		History: []domain.StatusEntry{{
			Status:        domain.StatusInitiated,
			At:            now,
			Detail:        "transaction accepted",
			CorrelationID: correlationID,
		}},
		CorrelationID: correlationID,
	}

	if err := s.ledger.TryInsert(ctx, rec); err != nil {
		if errors.Is(err, ledger.ErrDuplicateReference) {
			log.Printf("[%s] duplicate reference %s rejected", correlationID, reference)
			return nil, ErrDuplicateTransaction
		}
		return nil, fmt.Errorf("ledger insert failed: %w", err)
	}

	gwReq := gateway.InitializeRequest{
		Amount:      amount.String(),
		Currency:    req.Currency,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		TxRef:       reference,
		CallbackURL: req.CallbackURL,
		ReturnURL:   req.ReturnURL,
	}
	if req.Customization.Title != "" || req.Customization.Description != "" {
		gwReq.Customization = map[string]string{}
		if req.Customization.Title != "" {
			gwReq.Customization["title"] = req.Customization.Title
		}
		if req.Customization.Description != "" {
			gwReq.Customization["description"] = req.Customization.Description
		}
	}

	var gwResp *gateway.InitializeResponse
	gwErr := retry.Do(ctx, s.maxAttempts, s.retryDelay, func(ctx context.Context) error {
		resp, err := s.gateway.Initialize(ctx, gwReq)
		if err != nil {
			log.Printf("[%s] gateway attempt failed for %s: %v", correlationID, reference, err)
			return err
		}
		gwResp = resp
		return nil
	})

	if gwErr != nil {
		s.recordFailure(ctx, reference, correlationID, gwErr)
		var ge *gateway.Error
		if errors.As(gwErr, &ge) && ge.Kind == gateway.KindContract {
			return nil, fmt.Errorf("%w: %v", ErrGatewayContract, gwErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, gwErr)
	}

	updated, err := s.ledger.Replace(ctx, reference, func(cur domain.TransactionRecord) domain.TransactionRecord {
		now := time.Now().UTC()
		cur.Status = domain.StatusPending
		cur.UpdatedAt = now
		cur.GatewayResponse = gwResp.Raw
		cur.LastError = ""
		cur.History = append(cur.History, domain.StatusEntry{
			Status:        domain.StatusPending,
			At:            now,
			Detail:        "gateway accepted initialization",
			CorrelationID: correlationID,
		})
		return cur
	})
	if err != nil {
		return nil, fmt.Errorf("ledger update failed: %w", err)
	}

	log.Printf("[%s] transaction %s pending, checkout URL issued", correlationID, reference)
	return &domain.InitiateResponse{
		CheckoutURL:   gwResp.Data.CheckoutURL,
		Reference:     updated.Reference,
		CorrelationID: correlationID,
		Status:        updated.Status,
		Fee:           feeAmount,
	}, nil
}

// Get returns the current record for a reference.
func (s *Initiation) Get(ctx context.Context, reference string) (domain.TransactionRecord, error) {
	return s.ledger.Get(ctx, reference)
}

// recordFailure keeps the record in its initiated status but captures the
// terminal failure on it. There is no failed status: an initiated record
// with a populated last_error is one the gateway never accepted.
func (s *Initiation) recordFailure(ctx context.Context, reference, correlationID string, cause error) {
	_, err := s.ledger.Replace(ctx, reference, func(cur domain.TransactionRecord) domain.TransactionRecord {
		now := time.Now().UTC()
		cur.UpdatedAt = now
		cur.LastError = cause.Error()
		cur.History = append(cur.History, domain.StatusEntry{
			Status:        cur.Status,
			At:            now,
			Detail:        "gateway initialization failed: " + cause.Error(),
			CorrelationID: correlationID,
		})
		return cur
	})
	if err != nil {
		log.Printf("[%s] failed to record gateway failure for %s: %v", correlationID, reference, err)
	}
}

func generateReference() string {
	return fmt.Sprintf("TX-%d-%s", time.Now().UnixNano(), uuid.NewString()[:8])
}
