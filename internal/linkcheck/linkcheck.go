// Package linkcheck reports whether catalog tool links are reachable.
package linkcheck

import (
	"context"
	"sync"
	"time"

	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/base"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/catalog"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/metrics"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/tracing"
)

const (
	// MaxLinks caps the URLs checked per call.
	MaxLinks = 20

	// DefaultTimeout bounds a whole batch.
	DefaultTimeout = 10 * time.Second

	// MaxTimeout is the largest batch timeout a caller may ask for.
	MaxTimeout = 60 * time.Second
)

// LinkStatus is the result for one tool.
type LinkStatus struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Status     string `json:"status"` // ok, broken
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
	LatencyMS  int64  `json:"latency_ms"`
	Cached     bool   `json:"cached,omitempty"`
}

// Report summarizes a batch.
type Report struct {
	Results   []LinkStatus `json:"results"`
	Checked   int          `json:"checked"`
	OK        int          `json:"ok"`
	Broken    int          `json:"broken"`
	Truncated bool         `json:"truncated,omitempty"`
}

// Prober checks a single URL.
type Prober interface {
	Probe(ctx context.Context, rawURL string) base.ProbeResult
}

// Checker runs batches of probes.
type Checker struct {
	prober  Prober
	timeout time.Duration
}

// New returns a Checker. timeout <= 0 uses DefaultTimeout.
func New(prober Prober, timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Checker{prober: prober, timeout: timeout}
}

// Check probes the URLs of records, at most MaxLinks of them, in parallel.
// Results keep the order of records. timeout bounds how long the batch waits
// and overrides the checker default when positive; probes still running when
// it passes are reported broken for this batch only.
func (c *Checker) Check(ctx context.Context, records []catalog.ToolRecord, timeout time.Duration) Report {
	if timeout <= 0 {
		timeout = c.timeout
	}
	timeout = min(timeout, MaxTimeout)

	report := Report{}
	if len(records) > MaxLinks {
		records = records[:MaxLinks]
		report.Truncated = true
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	report.Results = make([]LinkStatus, len(records))
	var wg sync.WaitGroup
	for i, r := range records {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report.Results[i] = c.checkOne(ctx, r)
		}()
	}
	wg.Wait()

	for _, s := range report.Results {
		if s.Status == "ok" {
			report.OK++
		} else {
			report.Broken++
		}
	}
	report.Checked = len(report.Results)
	return report
}

func (c *Checker) checkOne(ctx context.Context, r catalog.ToolRecord) LinkStatus {
	ctx, span := tracing.StartSpan(ctx, "linkcheck.probe")
	defer span.End()

	res := c.prober.Probe(ctx, r.URL)
	tracing.AddLinkAttributes(span, r.URL, res.StatusCode, res.OK)
	metrics.RecordLinkCheck(res.OK, res.Cached, res.Duration.Seconds())

	status := "broken"
	if res.OK {
		status = "ok"
	}
	return LinkStatus{
		ID:         r.ID,
		Title:      r.Title,
		URL:        r.URL,
		Status:     status,
		StatusCode: res.StatusCode,
		Error:      res.Error,
		LatencyMS:  res.Duration.Milliseconds(),
		Cached:     res.Cached,
	}
}
