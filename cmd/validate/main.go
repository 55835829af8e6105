// Command validate checks that a seismic API serves data the viewer can draw:
// event and cluster lists are well formed, positions are on the map, and
// event details agree with their summaries.
//
// Usage:
//
//	go run ./cmd/validate -api http://localhost:8080/api -sample 25
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/geosight-viewer/internal/adapter/seismic"
	"github.com/couchcryptid/geosight-viewer/internal/domain"
	"github.com/couchcryptid/geosight-viewer/internal/observability"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	apiURL := flag.String("api", "http://localhost:8080/api", "seismic API base URL")
	sample := flag.Int("sample", 25, "number of events whose detail is fetched and compared")
	timeout := flag.Duration("timeout", 10*time.Second, "per-request timeout")
	flag.Parse()

	if *apiURL == "" || *sample < 0 {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*apiURL, *sample, *timeout))
}

func run(apiURL string, sample int, timeout time.Duration) int {
	ctx := context.Background()
	client := seismic.NewClient(apiURL, timeout, observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	fmt.Println("=== Seismic API Validation ===")
	fmt.Println()

	events, err := client.ListEvents(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: list earthquakes: %v\n", err)
		return 1
	}
	clusters, err := client.ListClusters(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: list clusters: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateEvents(events),
		validateClusters(clusters),
		validateDetails(ctx, client, events, sample),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d earthquakes, %d clusters\n", len(events), len(clusters))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phases ──

func validateEvents(events []domain.EventSummary) *phase {
	p := &phase{name: "Earthquake list"}
	seen := make(map[string]int, len(events))
	for i, e := range events {
		if prev, dup := seen[e.ID]; dup {
			p.errorf("event %q at index %d duplicates index %d", e.ID, i, prev)
		}
		seen[e.ID] = i

		if !domain.ValidPosition(e.Latitude, e.Longitude) {
			p.errorf("event %q: position (%.4f, %.4f) is off the map", e.ID, e.Latitude, e.Longitude)
		}
		if e.Time.IsZero() {
			p.errorf("event %q: missing time", e.ID)
		}
		if e.Magnitude < -2 || e.Magnitude > 10 {
			p.errorf("event %q: implausible magnitude %v", e.ID, e.Magnitude)
		}
		if e.Place == "" {
			p.errorf("event %q: missing place", e.ID)
		}
	}
	return p
}

func validateClusters(clusters []domain.ClusterSummary) *phase {
	p := &phase{name: "Hotspot clusters"}
	seen := make(map[int64]bool, len(clusters))
	for _, c := range clusters {
		if seen[c.ID] {
			p.errorf("cluster %d: duplicate id", c.ID)
		}
		seen[c.ID] = true

		if !domain.ValidPosition(c.Latitude, c.Longitude) {
			p.errorf("cluster %d: position (%.4f, %.4f) is off the map", c.ID, c.Latitude, c.Longitude)
		}
		if c.ClusterSize <= 0 {
			p.errorf("cluster %d: non-positive size %d", c.ID, c.ClusterSize)
		}
	}
	return p
}

// detailFetcher is the part of the seismic client the detail phase needs.
type detailFetcher interface {
	GetEventDetail(ctx context.Context, id string) (domain.EventDetail, error)
}

func validateDetails(ctx context.Context, client detailFetcher, events []domain.EventSummary, sample int) *phase {
	p := &phase{name: "Event details match summaries"}
	for i := 0; i < len(events) && i < sample; i++ {
		e := events[i]
		d, err := client.GetEventDetail(ctx, e.ID)
		if err != nil {
			p.errorf("event %q: %v", e.ID, err)
			continue
		}
		if d.ID != e.ID {
			p.errorf("event %q: detail has id %q", e.ID, d.ID)
		}
		if d.Latitude != e.Latitude || d.Longitude != e.Longitude {
			p.errorf("event %q: detail position (%.4f, %.4f) differs from summary (%.4f, %.4f)",
				e.ID, d.Latitude, d.Longitude, e.Latitude, e.Longitude)
		}
		if d.Magnitude != e.Magnitude {
			p.errorf("event %q: detail magnitude %v differs from summary %v", e.ID, d.Magnitude, e.Magnitude)
		}
		if d.Depth < 0 {
			p.errorf("event %q: negative depth %v", e.ID, d.Depth)
		}
	}
	return p
}
