package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/punchamoorthee/payinit/internal/api"
	"github.com/punchamoorthee/payinit/internal/config"
	"github.com/punchamoorthee/payinit/internal/gateway"
	"github.com/punchamoorthee/payinit/internal/ledger"
	"github.com/punchamoorthee/payinit/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	store, err := openLedger(cfg)
	if err != nil {
		log.Fatalf("Unable to open %s ledger: %v", cfg.LedgerBackend, err)
	}
	defer store.Close()

	// Initialize Layers
	gw := gateway.NewClient(cfg.GatewayURL, cfg.GatewaySecretKey, cfg.GatewayTimeout)
	svc := service.NewInitiation(store, gw, cfg.RetryMaxAttempts, cfg.RetryDelay)
	handler := api.NewHandler(svc)

	// Router
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", handler.HealthCheckHandler).Methods("GET")

	apiV1 := r.PathPrefix("/api/v1").Subrouter()
	apiV1.HandleFunc("/transactions", handler.InitiateTransactionHandler).Methods("POST")
	apiV1.HandleFunc("/transactions/{reference}", handler.GetTransactionHandler).Methods("GET")

	log.Printf("Server starting on :%s (ledger=%s, env=%s)", cfg.Port, cfg.LedgerBackend, cfg.Env)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}

func openLedger(cfg *config.Config) (ledger.Ledger, error) {
	switch cfg.LedgerBackend {
	case "postgres":
		return ledger.NewPostgres(context.Background(), cfg.DBSource)
	case "bolt":
		return ledger.NewBolt(cfg.BoltPath)
	default:
		return ledger.NewMemory(), nil
	}
}
