//go:build ignore

// Probeload fires concurrent health probes at "lbhealth serve" and reports
// the verdict distribution and latency percentiles. Every probe runs the
// full check list, so it shows how check duration and process fan-out
// behave under load-balancer polling.
//
// Usage:
//
//	go run scripts/probeload.go -url http://localhost:9000/ -concurrency 10 -requests 500
//	go run scripts/probeload.go -url http://localhost:9000/verbose -out summary.json
package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
)

type verdictStats struct {
	Count     int32
	Latencies []time.Duration
}

type verdictSummary struct {
	Count int32   `json:"count"`
	P50   float64 `json:"p50_ms"`
	P90   float64 `json:"p90_ms"`
	P99   float64 `json:"p99_ms"`
}

func main() {
	var (
		url         = flag.String("url", "http://localhost:9000/", "Probe URL")
		concurrency = flag.Int("concurrency", 10, "Number of concurrent probers")
		requests    = flag.Int("requests", 100, "Total number of probes to send")
		timeout     = flag.Duration("timeout", 45*time.Second, "Per-probe timeout")
		outJSON     = flag.String("out", "", "Write JSON summary to this file (optional)")
		verbose     = flag.Bool("v", false, "Print every probe result")
	)
	flag.Parse()

	client := &http.Client{Timeout: *timeout}

	jobs := make(chan int)
	var wg sync.WaitGroup

	var errored int32

	stats := make(map[string]*verdictStats)
	var statsMu sync.Mutex

	testStart := time.Now()

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range jobs {
				start := time.Now()
				resp, err := client.Get(*url)
				dur := time.Since(start)

				if err != nil {
					atomic.AddInt32(&errored, 1)
					if *verbose {
						fmt.Printf("[%d] idx=%d error=%v\n", workerID, idx, err)
					}
					continue
				}

				n, _ := io.Copy(io.Discard, resp.Body)
				resp.Body.Close()

				key := resp.Status

				statsMu.Lock()
				vs, ok := stats[key]
				if !ok {
					vs = &verdictStats{}
					stats[key] = vs
				}
				vs.Count++
				vs.Latencies = append(vs.Latencies, dur)
				statsMu.Unlock()

				if *verbose {
					fmt.Printf("[%d] idx=%d status=%q body=%dB dur=%v\n", workerID, idx, key, n, dur)
				}
			}
		}(i)
	}

	go func() {
		for i := 0; i < *requests; i++ {
			jobs <- i
		}
		close(jobs)
	}()

	wg.Wait()
	totalDuration := time.Since(testStart)

	fmt.Println("--- Probe Load Summary ---")
	fmt.Printf("Target: %s\n", *url)
	fmt.Printf("Probes: %d  Concurrency: %d  Errors: %d\n", *requests, *concurrency, errored)
	fmt.Printf("Duration: %v  Throughput: %.2f probes/s\n", totalDuration, float64(*requests)/totalDuration.Seconds())

	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	summary := make(map[string]verdictSummary, len(stats))
	var unhealthy int32

	fmt.Println("\nResponses:")
	for _, k := range keys {
		vs := stats[k]
		sort.Slice(vs.Latencies, func(i, j int) bool { return vs.Latencies[i] < vs.Latencies[j] })
		p := func(pct float64) time.Duration {
			return vs.Latencies[int(float64(len(vs.Latencies)-1)*pct)]
		}

		fmt.Printf("  %s -> %d  p50=%v p90=%v p99=%v\n", k, vs.Count, p(0.50), p(0.90), p(0.99))

		summary[k] = verdictSummary{
			Count: vs.Count,
			P50:   float64(p(0.50).Microseconds()) / 1000.0,
			P90:   float64(p(0.90).Microseconds()) / 1000.0,
			P99:   float64(p(0.99).Microseconds()) / 1000.0,
		}
		if k != "200 OK" {
			unhealthy += vs.Count
		}
	}

	fmt.Printf("\nGOMAXPROCS=%d  NumGoroutine=%d\n", runtime.GOMAXPROCS(0), runtime.NumGoroutine())

	if *outJSON != "" {
		report := map[string]interface{}{
			"target":         *url,
			"requests":       *requests,
			"concurrency":    *concurrency,
			"errors":         errored,
			"duration_ms":    totalDuration.Milliseconds(),
			"throughput_pps": float64(*requests) / totalDuration.Seconds(),
			"responses":      summary,
		}

		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to encode summary: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*outJSON, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write json file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nWrote JSON summary to %s\n", *outJSON)
	}

	if errored > 0 || unhealthy > 0 {
		os.Exit(2)
	}
}
