// Package adaptertest provides platform-agnostic conformance testing for
// telephony adapters.
//
// Every adapter must return its cached snapshot without error in the normal
// case, honour context cancellation, answer a live request through exactly
// one callback method, and produce cells that extract and encode cleanly.
package adaptertest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/radio-control/cellinfo/internal/adapter"
	"github.com/radio-control/cellinfo/internal/cell"
	"github.com/radio-control/cellinfo/internal/extract"
)

// Capabilities defines the expected capabilities for conformance testing.
type Capabilities struct {
	// MinCells is the minimum cached snapshot size.
	MinCells int

	// ExpectLive requires the adapter to offer live updates.
	ExpectLive bool

	// ExpectedTypes, when set, must all appear among the extracted records.
	ExpectedTypes []cell.Type

	// LiveTimeout bounds the wait for a live callback. Defaults to 2s.
	LiveTimeout time.Duration

	// CachedBudget bounds a cached read. Defaults to 100ms.
	CachedBudget time.Duration
}

// ConformanceResult represents the result of a conformance test.
type ConformanceResult struct {
	TestName string
	Passed   bool
	Error    string
	Duration time.Duration
	Details  map[string]interface{}
}

// ConformanceReport represents the complete conformance test report.
type ConformanceReport struct {
	AdapterName   string
	TotalTests    int
	PassedTests   int
	FailedTests   int
	Results       []ConformanceResult
	OverallPassed bool
	Duration      time.Duration
}

// RunConformance runs the complete conformance test suite for an adapter.
func RunConformance(t *testing.T, newAdapter func() adapter.ITelephonyAdapter, caps Capabilities) {
	t.Helper()
	if caps.LiveTimeout <= 0 {
		caps.LiveTimeout = 2 * time.Second
	}
	if caps.CachedBudget <= 0 {
		caps.CachedBudget = 100 * time.Millisecond
	}

	startTime := time.Now()
	report := &ConformanceReport{
		AdapterName:   fmt.Sprintf("%T", newAdapter()),
		OverallPassed: true,
	}

	runCachedTests(newAdapter, caps, report)
	runCancellationTests(newAdapter, report)
	runLiveTests(newAdapter, caps, report)
	runExtractionTests(newAdapter, caps, report)
	runIdempotencyTests(newAdapter, report)

	report.Duration = time.Since(startTime)
	printConformanceReport(t, report)

	if !report.OverallPassed {
		t.Fatalf("Adapter conformance test failed: %d/%d tests passed", report.PassedTests, report.TotalTests)
	}
}

func runCachedTests(newAdapter func() adapter.ITelephonyAdapter, caps Capabilities, report *ConformanceReport) {
	a := newAdapter()
	result := ConformanceResult{TestName: "CachedCells_Basic", Details: make(map[string]interface{})}

	start := time.Now()
	cells, err := a.CachedCells(context.Background())
	result.Duration = time.Since(start)

	switch {
	case err != nil:
		result.Error = fmt.Sprintf("CachedCells failed: %v", err)
	case len(cells) < caps.MinCells:
		result.Error = fmt.Sprintf("CachedCells returned %d cells, want at least %d", len(cells), caps.MinCells)
	case result.Duration > caps.CachedBudget:
		result.Error = fmt.Sprintf("CachedCells took %v, budget %v", result.Duration, caps.CachedBudget)
	default:
		result.Passed = true
		for i, c := range cells {
			if c == nil || strings.TrimSpace(c.Technology()) == "" {
				result.Passed = false
				result.Error = fmt.Sprintf("cell %d has no technology tag", i)
				break
			}
		}
		result.Details["cells"] = len(cells)
	}
	report.addResult(result)
}

func runCancellationTests(newAdapter func() adapter.ITelephonyAdapter, report *ConformanceReport) {
	a := newAdapter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := ConformanceResult{TestName: "CachedCells_Canceled", Details: make(map[string]interface{})}
	start := time.Now()
	_, err := a.CachedCells(ctx)
	result.Duration = time.Since(start)
	if errors.Is(err, context.Canceled) {
		result.Passed = true
	} else {
		result.Error = fmt.Sprintf("CachedCells on canceled context returned %v", err)
	}
	report.addResult(result)

	live, ok := a.(adapter.LiveRequester)
	if !ok {
		return
	}
	result = ConformanceResult{TestName: "Live_Canceled", Details: make(map[string]interface{})}
	start = time.Now()
	err = live.RequestCellUpdate(ctx, &recorder{})
	result.Duration = time.Since(start)
	if err != nil {
		result.Passed = true
	} else {
		result.Error = "RequestCellUpdate on canceled context was issued"
	}
	report.addResult(result)
}

func runLiveTests(newAdapter func() adapter.ITelephonyAdapter, caps Capabilities, report *ConformanceReport) {
	a := newAdapter()
	result := ConformanceResult{TestName: "Live_SingleCallback", Details: make(map[string]interface{})}

	live, ok := a.(adapter.LiveRequester)
	if !ok || !live.SupportsLiveUpdates() {
		if caps.ExpectLive {
			result.Error = "adapter does not offer live updates"
		} else {
			result.Passed = true
			result.Details["live"] = false
		}
		report.addResult(result)
		return
	}

	rec := &recorder{done: make(chan struct{})}
	ctx, cancel := context.WithTimeout(context.Background(), caps.LiveTimeout)
	defer cancel()

	start := time.Now()
	if err := live.RequestCellUpdate(ctx, rec); err != nil {
		result.Duration = time.Since(start)
		result.Error = fmt.Sprintf("RequestCellUpdate failed: %v", err)
		report.addResult(result)
		return
	}

	select {
	case <-rec.done:
		result.Duration = time.Since(start)
		result.Passed = true
		result.Details["cells"] = rec.cellCount()
	case <-ctx.Done():
		result.Duration = time.Since(start)
		result.Error = fmt.Sprintf("no callback within %v", caps.LiveTimeout)
	}
	report.addResult(result)
}

func runExtractionTests(newAdapter func() adapter.ITelephonyAdapter, caps Capabilities, report *ConformanceReport) {
	a := newAdapter()
	result := ConformanceResult{TestName: "Extraction_Total", Details: make(map[string]interface{})}

	start := time.Now()
	cells, err := a.CachedCells(context.Background())
	if err != nil {
		result.Duration = time.Since(start)
		result.Error = fmt.Sprintf("CachedCells failed: %v", err)
		report.addResult(result)
		return
	}

	records := extract.New(nil).ExtractAll(cells)
	_, encodeErr := cell.Encode(records)
	result.Duration = time.Since(start)

	seen := make(map[cell.Type]bool)
	for _, r := range records {
		seen[r.Type] = true
	}

	switch {
	case len(records) != len(cells):
		result.Error = fmt.Sprintf("extracted %d records from %d cells", len(records), len(cells))
	case encodeErr != nil:
		result.Error = fmt.Sprintf("encode failed: %v", encodeErr)
	default:
		result.Passed = true
		for _, want := range caps.ExpectedTypes {
			if !seen[want] {
				result.Passed = false
				result.Error = fmt.Sprintf("no %s record extracted", want)
				break
			}
		}
		result.Details["records"] = len(records)
	}
	report.addResult(result)
}

func runIdempotencyTests(newAdapter func() adapter.ITelephonyAdapter, report *ConformanceReport) {
	a := newAdapter()
	ctx := context.Background()
	result := ConformanceResult{TestName: "CachedCells_Idempotent", Details: make(map[string]interface{})}

	start := time.Now()
	first, err1 := a.CachedCells(ctx)
	second, err2 := a.CachedCells(ctx)
	result.Duration = time.Since(start)

	switch {
	case err1 != nil || err2 != nil:
		result.Error = fmt.Sprintf("CachedCells failed: %v / %v", err1, err2)
	case len(first) != len(second):
		result.Error = fmt.Sprintf("snapshot size changed between reads: %d then %d", len(first), len(second))
	default:
		result.Passed = true
	}
	report.addResult(result)
}

// recorder counts callback deliveries.
type recorder struct {
	mu     sync.Mutex
	calls  int
	cells  int
	done   chan struct{}
	closed bool
}

func (r *recorder) OnCellInfo(cells []adapter.RawCell) {
	r.mu.Lock()
	r.cells = len(cells)
	r.mu.Unlock()
	r.fire()
}

func (r *recorder) OnError(code int, detail error) {
	r.fire()
}

func (r *recorder) fire() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.done != nil && !r.closed {
		r.closed = true
		close(r.done)
	}
}

func (r *recorder) cellCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cells
}

func (r *ConformanceReport) addResult(result ConformanceResult) {
	r.TotalTests++
	if result.Passed {
		r.PassedTests++
	} else {
		r.FailedTests++
		r.OverallPassed = false
	}
	r.Results = append(r.Results, result)
}

func printConformanceReport(t *testing.T, report *ConformanceReport) {
	t.Helper()
	t.Logf("%s", strings.Repeat("=", 80))
	t.Logf("ADAPTER CONFORMANCE REPORT: %s", report.AdapterName)
	t.Logf("Passed %d/%d in %v", report.PassedTests, report.TotalTests, report.Duration)
	t.Logf("%-28s %-6s %-12s %s", "TEST NAME", "RESULT", "DURATION", "DETAILS")

	for _, result := range report.Results {
		status := "PASS"
		if !result.Passed {
			status = "FAIL"
		}
		details := result.Error
		if details == "" {
			parts := make([]string, 0, len(result.Details))
			for k, v := range result.Details {
				parts = append(parts, fmt.Sprintf("%s=%v", k, v))
			}
			details = strings.Join(parts, ", ")
		}
		t.Logf("%-28s %-6s %-12s %s", result.TestName, status, result.Duration, details)
	}
}
