// gatewaysim is a local stand-in for the payment gateway's initialize
// endpoint. It issues fake checkout URLs and can inject failures and
// latency so the retry path can be exercised without a real gateway.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"net/http"
	"time"
)

var (
	port     string
	failRate float64
	latency  time.Duration
	noURL    bool
)

func init() {
	flag.StringVar(&port, "port", "9090", "Listen port")
	flag.Float64Var(&failRate, "fail-rate", 0, "Fraction of requests answered with HTTP 503")
	flag.DurationVar(&latency, "latency", 0, "Fixed delay before each response")
	flag.BoolVar(&noURL, "omit-checkout-url", false, "Respond 200 but without checkout_url (contract error)")
}

func main() {
	flag.Parse()

	http.HandleFunc("/v1/transaction/initialize", func(w http.ResponseWriter, r *http.Request) {
		if latency > 0 {
			time.Sleep(latency)
		}
		if failRate > 0 && rand.Float64() < failRate {
			http.Error(w, "simulated outage", http.StatusServiceUnavailable)
			return
		}

		var req struct {
			TxRef string `json:"tx_ref"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TxRef == "" {
			http.Error(w, "tx_ref required", http.StatusBadRequest)
			return
		}

		data := map[string]string{}
		if !noURL {
			data["checkout_url"] = "http://localhost:" + port + "/checkout/" + req.TxRef
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "success",
			"message": "Hosted Link",
			"data":    data,
		})
	})

	log.Printf("gatewaysim listening on :%s (fail-rate=%.2f latency=%s)", port, failRate, latency)
	log.Fatal(http.ListenAndServe(":"+port, nil))
}
