package scan_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"nabscan/internal/logging"
	"nabscan/internal/scan"
	"nabscan/internal/services"
)

type stubScanner struct {
	mu        sync.Mutex
	scanned   []scan.Job
	retried   []string
	scanHook  func(scan.Job) error
	retryHook func(string) error
}

func (s *stubScanner) ScanGroup(_ context.Context, job scan.Job) error {
	s.mu.Lock()
	s.scanned = append(s.scanned, job)
	s.mu.Unlock()
	if s.scanHook != nil {
		return s.scanHook(job)
	}
	return nil
}

func (s *stubScanner) ScanMissingSegments(_ context.Context, group string) error {
	s.mu.Lock()
	s.retried = append(s.retried, group)
	s.mu.Unlock()
	if s.retryHook != nil {
		return s.retryHook(group)
	}
	return nil
}

func groupNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("alt.binaries.g%02d", i)
	}
	return names
}

func TestRunNeverExceedsLimitAndJoinsAll(t *testing.T) {
	const (
		jobs  = 12
		limit = 3
	)
	var (
		inFlight atomic.Int32
		peak     atomic.Int32
		done     atomic.Int32
	)
	sched := scan.NewScheduler(limit, logging.NewNop())
	results, err := sched.Run(context.Background(), scan.UpdateJobs(groupNames(jobs), 100), func(context.Context, scan.Job) error {
		current := inFlight.Add(1)
		for {
			old := peak.Load()
			if current <= old || peak.CompareAndSwap(old, current) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		done.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := peak.Load(); got > limit {
		t.Fatalf("expected at most %d jobs in flight, saw %d", limit, got)
	}
	if got := done.Load(); got != jobs {
		t.Fatalf("expected Run to return after all %d jobs, %d finished", jobs, got)
	}
	if len(results) != jobs {
		t.Fatalf("expected %d results, got %d", jobs, len(results))
	}
}

func TestRunUnboundedGivesEveryJobASlot(t *testing.T) {
	const jobs = 5
	var (
		wg      sync.WaitGroup
		started = make(chan struct{}, jobs)
	)
	wg.Add(jobs)
	sched := scan.NewScheduler(0, logging.NewNop())
	// Each job waits for all others to start; this only finishes when all run at once.
	results, err := sched.Run(context.Background(), scan.UpdateJobs(groupNames(jobs), 1), func(context.Context, scan.Job) error {
		started <- struct{}{}
		wg.Done()
		wg.Wait()
		return nil
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(results) != jobs || len(started) != jobs {
		t.Fatalf("expected %d concurrent jobs, got %d results", jobs, len(results))
	}
}

func TestRunIsolatesFailuresAndPanics(t *testing.T) {
	scanner := &stubScanner{
		scanHook: func(job scan.Job) error {
			switch job.Group {
			case "alt.binaries.g01":
				return errors.New("connection reset by peer")
			case "alt.binaries.g02":
				panic("nil article")
			}
			return nil
		},
	}
	sched := scan.NewScheduler(2, logging.NewNop())
	results, err := sched.ScanWave(context.Background(), scanner, scan.UpdateJobs(groupNames(5), 100))
	if err != nil {
		t.Fatalf("ScanWave returned error: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	if got := scan.Failures(results); got != 2 {
		t.Fatalf("expected 2 failures, got %d", got)
	}

	failed := map[string]error{}
	for _, r := range results {
		if !r.OK() {
			failed[r.Job.Group] = r.Err
		}
	}
	if _, ok := failed["alt.binaries.g01"]; !ok {
		t.Fatalf("expected g01 failure, got %v", failed)
	}
	if err := failed["alt.binaries.g02"]; err == nil {
		t.Fatalf("expected g02 panic to be captured, got %v", failed)
	}
	if len(scanner.scanned) != 5 {
		t.Fatalf("expected every job dispatched, got %d", len(scanner.scanned))
	}
}

func TestRunEmptyJobSetIsIdle(t *testing.T) {
	sched := scan.NewScheduler(4, logging.NewNop())
	called := false
	results, err := sched.Run(context.Background(), nil, func(context.Context, scan.Job) error {
		called = true
		return nil
	})
	if !errors.Is(err, scan.ErrIdle) {
		t.Fatalf("expected ErrIdle, got %v", err)
	}
	if called || results != nil {
		t.Fatal("expected no dispatch for empty job set")
	}
}

func TestRetryWaveDispatchesEachGroupOnce(t *testing.T) {
	scanner := &stubScanner{
		retryHook: func(group string) error {
			if group == "alt.binaries.b" {
				return errors.New("article not found")
			}
			return nil
		},
	}
	sched := scan.NewScheduler(2, logging.NewNop())
	results, err := sched.RetryWave(context.Background(), scanner, []string{"alt.binaries.b", "alt.binaries.a", "alt.binaries.b"})
	if err != nil {
		t.Fatalf("RetryWave returned error: %v", err)
	}
	if len(results) != 2 || scan.Failures(results) != 1 {
		t.Fatalf("unexpected retry results: %+v", results)
	}
	sort.Strings(scanner.retried)
	if len(scanner.retried) != 2 || scanner.retried[0] != "alt.binaries.a" || scanner.retried[1] != "alt.binaries.b" {
		t.Fatalf("unexpected retried groups: %v", scanner.retried)
	}
	for _, r := range results {
		if r.Job.Kind != scan.KindRetry {
			t.Fatalf("expected retry kind, got %s", r.Job.Kind)
		}
	}
	if len(scanner.scanned) != 0 {
		t.Fatal("retry wave must not issue primary scans")
	}
}

func TestBackfillJobsCarryDirectionAndDate(t *testing.T) {
	since := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	jobs := scan.BackfillJobs([]string{"alt.binaries.test"}, since, 2000000)
	if len(jobs) != 1 {
		t.Fatalf("expected one job, got %d", len(jobs))
	}
	job := jobs[0]
	if job.Direction != scan.DirectionBackward || job.Mode != scan.ModeBackfill || !job.Since.Equal(since) || job.Limit != 2000000 {
		t.Fatalf("unexpected backfill job: %+v", job)
	}
}

func TestScanWaveHintsAtConfigurationFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	scanner := &stubScanner{scanHook: func(job scan.Job) error {
		if job.Group == "alt.binaries.unset" {
			return services.Wrap(services.ErrConfiguration, "scan", job.Group, "scan command not configured", nil)
		}
		return errors.New("connection reset")
	}}

	jobs := scan.UpdateJobs([]string{"alt.binaries.unset", "alt.binaries.flaky"}, 100)
	if _, err := scan.NewScheduler(1, logger).ScanWave(context.Background(), scanner, jobs); err != nil {
		t.Fatalf("ScanWave returned error: %v", err)
	}

	hints := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		if entry["msg"] == "scan job failed" {
			hints[entry[logging.FieldGroup].(string)] = entry[logging.FieldErrorHint].(string)
		}
	}
	if !strings.Contains(hints["alt.binaries.unset"], "collaborators.scan_command") {
		t.Fatalf("expected config hint for unconfigured scan, got %q", hints["alt.binaries.unset"])
	}
	if strings.Contains(hints["alt.binaries.flaky"], "collaborators.scan_command") {
		t.Fatalf("expected retry hint for runtime failure, got %q", hints["alt.binaries.flaky"])
	}
}
