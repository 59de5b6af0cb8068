package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/punchamoorthee/payinit/internal/domain"
	"github.com/punchamoorthee/payinit/internal/ledger"
	"github.com/punchamoorthee/payinit/internal/service"
	"github.com/punchamoorthee/payinit/internal/validate"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payinit_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payinit_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "endpoint"})
)

// Machine-readable error codes; the message next to them is for humans.
const (
	codeInvalidBody      = "invalid_body"
	codeValidationFailed = "validation_failed"
	codeDuplicateTx      = "duplicate_transaction"
	codeGatewayContract  = "gateway_response_error"
	codeInitFailed       = "initiation_failed"
	codeNotFound         = "transaction_not_found"
	codeInternal         = "internal_error"
)

// ErrorResponse is the error envelope every failure path returns.
type ErrorResponse struct {
	Code          string   `json:"code"`
	Message       string   `json:"message"`
	Reasons       []string `json:"reasons,omitempty"`
	CorrelationID string   `json:"correlation_id"`
}

type Handler struct {
	service *service.Initiation
}

func NewHandler(svc *service.Initiation) *Handler {
	return &Handler{service: svc}
}

func (h *Handler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) InitiateTransactionHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/transactions"))
	defer timer.ObserveDuration()

	correlationID := uuid.NewString()

	var req domain.InitiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpRequestsTotal.WithLabelValues("POST", "/transactions", "400").Inc()
		respondWithError(w, http.StatusBadRequest, ErrorResponse{
			Code:          codeInvalidBody,
			Message:       "Malformed JSON body",
			CorrelationID: correlationID,
		})
		return
	}

	resp, err := h.service.Initiate(r.Context(), req, correlationID)
	if err != nil {
		var verr *validate.ValidationError
		switch {
		case errors.As(err, &verr):
			httpRequestsTotal.WithLabelValues("POST", "/transactions", "422").Inc()
			respondWithError(w, http.StatusUnprocessableEntity, ErrorResponse{
				Code:          codeValidationFailed,
				Message:       "Request failed validation",
				Reasons:       verr.Reasons,
				CorrelationID: correlationID,
			})
		case errors.Is(err, service.ErrDuplicateTransaction):
			httpRequestsTotal.WithLabelValues("POST", "/transactions", "409").Inc()
			respondWithError(w, http.StatusConflict, ErrorResponse{
				Code:          codeDuplicateTx,
				Message:       "A transaction with this reference already exists",
				CorrelationID: correlationID,
			})
		case errors.Is(err, service.ErrGatewayContract):
			httpRequestsTotal.WithLabelValues("POST", "/transactions", "502").Inc()
			respondWithError(w, http.StatusBadGateway, ErrorResponse{
				Code:          codeGatewayContract,
				Message:       "Payment gateway returned an incomplete response",
				CorrelationID: correlationID,
			})
		default:
			httpRequestsTotal.WithLabelValues("POST", "/transactions", "500").Inc()
			respondWithError(w, http.StatusInternalServerError, ErrorResponse{
				Code:          codeInitFailed,
				Message:       "Transaction initiation failed",
				CorrelationID: correlationID,
			})
		}
		return
	}

	httpRequestsTotal.WithLabelValues("POST", "/transactions", "201").Inc()
	w.Header().Set("Location", "/api/v1/transactions/"+resp.Reference)
	respondWithJSON(w, http.StatusCreated, resp)
}

func (h *Handler) GetTransactionHandler(w http.ResponseWriter, r *http.Request) {
	reference := mux.Vars(r)["reference"]
	correlationID := uuid.NewString()

	rec, err := h.service.Get(r.Context(), reference)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			httpRequestsTotal.WithLabelValues("GET", "/transactions/{reference}", "404").Inc()
			respondWithError(w, http.StatusNotFound, ErrorResponse{
				Code:          codeNotFound,
				Message:       "Transaction not found",
				CorrelationID: correlationID,
			})
			return
		}
		httpRequestsTotal.WithLabelValues("GET", "/transactions/{reference}", "500").Inc()
		respondWithError(w, http.StatusInternalServerError, ErrorResponse{
			Code:          codeInternal,
			Message:       "Internal Server Error",
			CorrelationID: correlationID,
		})
		return
	}

	httpRequestsTotal.WithLabelValues("GET", "/transactions/{reference}", "200").Inc()
	respondWithJSON(w, http.StatusOK, rec)
}

func respondWithError(w http.ResponseWriter, code int, body ErrorResponse) {
	respondWithJSON(w, code, body)
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}
