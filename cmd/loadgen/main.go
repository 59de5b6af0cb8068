package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Config holds the load settings
var (
	targetURL   string
	concurrency int
	duration    time.Duration
	workload    string
	hotRefs     int
)

// Metrics
var (
	totalRequests uint64
	created201    uint64 // New transactions
	conflict409   uint64 // Duplicate references rejected
	invalid422    uint64
	failOther     uint64
)

func init() {
	flag.StringVar(&targetURL, "url", "http://localhost:8080", "API Base URL")
	flag.IntVar(&concurrency, "workers", 10, "Number of concurrent workers")
	flag.DurationVar(&duration, "duration", 30*time.Second, "Test duration")
	flag.StringVar(&workload, "workload", "uniform", "Workload type: uniform | hotspot")
	flag.IntVar(&hotRefs, "hot-refs", 16, "Distinct references in hotspot mode")
}

func main() {
	flag.Parse()
	log.Printf("Starting Load: %s | Workers: %d | Duration: %s", workload, concurrency, duration)

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(concurrency)

	for i := 0; i < concurrency; i++ {
		go worker(&wg, start)
	}

	wg.Wait()
	printResults(time.Since(start))
}

func worker(wg *sync.WaitGroup, start time.Time) {
	defer wg.Done()
	client := &http.Client{Timeout: 35 * time.Second}

	for time.Since(start) < duration {
		ref := fmt.Sprintf("load-%d", time.Now().UnixNano())
		if workload == "hotspot" {
			// A small shared reference set forces the duplicate guard to fire.
			ref = fmt.Sprintf("load-hot-%d", rand.Intn(hotRefs))
		}

		payload := map[string]interface{}{
			"amount":       "100",
			"currency":     "ETB",
			"email":        "load@example.com",
			"callback_url": "https://example.com/callback",
			"order_id":     ref,
		}
		body, _ := json.Marshal(payload)

		req, _ := http.NewRequest("POST", targetURL+"/api/v1/transactions", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		atomic.AddUint64(&totalRequests, 1)
		if err != nil {
			atomic.AddUint64(&failOther, 1)
			continue
		}
		resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusCreated:
			atomic.AddUint64(&created201, 1)
		case http.StatusConflict:
			atomic.AddUint64(&conflict409, 1)
		case http.StatusUnprocessableEntity:
			atomic.AddUint64(&invalid422, 1)
		default:
			atomic.AddUint64(&failOther, 1)
		}
	}
}

func printResults(elapsed time.Duration) {
	total := atomic.LoadUint64(&totalRequests)
	fmt.Println("--- Results ---")
	fmt.Printf("Elapsed:     %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Requests:    %d (%.1f req/s)\n", total, float64(total)/elapsed.Seconds())
	fmt.Printf("Created:     %d\n", atomic.LoadUint64(&created201))
	fmt.Printf("Conflicts:   %d\n", atomic.LoadUint64(&conflict409))
	fmt.Printf("Invalid:     %d\n", atomic.LoadUint64(&invalid422))
	fmt.Printf("Other fails: %d\n", atomic.LoadUint64(&failOther))
}
