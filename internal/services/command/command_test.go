package command_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"nabscan/internal/config"
	"nabscan/internal/logging"
	"nabscan/internal/scan"
	"nabscan/internal/services"
	"nabscan/internal/services/command"
)

type stubExecutor struct {
	lines    []string
	err      error
	binaries []string
	args     [][]string
}

func (s *stubExecutor) Run(_ context.Context, binary string, args []string, onOutput func(string)) error {
	s.binaries = append(s.binaries, binary)
	s.args = append(s.args, append([]string(nil), args...))
	for _, line := range s.lines {
		onOutput(line)
	}
	return s.err
}

func TestScanGroupBuildsArguments(t *testing.T) {
	exec := &stubExecutor{lines: []string{"fetched 100 articles", ""}}
	c := command.New(config.Collaborators{
		ScanCommand: "/usr/bin/nab-scan --config /etc/nab.toml",
		ExtraArgs:   []string{"--verbose"},
	}, logging.NewNop(), command.WithExecutor(exec))

	since := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	job := scan.BackfillJobs([]string{"alt.binaries.test"}, since, 5000)[0]
	if err := c.ScanGroup(context.Background(), job); err != nil {
		t.Fatalf("ScanGroup returned error: %v", err)
	}

	if len(exec.binaries) != 1 || exec.binaries[0] != "/usr/bin/nab-scan" {
		t.Fatalf("unexpected binary: %v", exec.binaries)
	}
	want := []string{
		"--config", "/etc/nab.toml",
		"scan", "--group", "alt.binaries.test", "--direction", "backward", "--limit", "5000",
		"--since", "2020-01-01T00:00:00Z",
		"--verbose",
	}
	if !slices.Equal(exec.args[0], want) {
		t.Fatalf("unexpected args:\n got %v\nwant %v", exec.args[0], want)
	}
}

func TestUpdateJobOmitsSince(t *testing.T) {
	exec := &stubExecutor{}
	c := command.New(config.Collaborators{ScanCommand: "nab-scan"}, logging.NewNop(), command.WithExecutor(exec))
	job := scan.UpdateJobs([]string{"alt.binaries.test"}, 10)[0]
	if err := c.ScanGroup(context.Background(), job); err != nil {
		t.Fatalf("ScanGroup returned error: %v", err)
	}
	if slices.Contains(exec.args[0], "--since") {
		t.Fatalf("expected no --since for update job, got %v", exec.args[0])
	}
}

func TestScanMissingUsesItsOwnCommand(t *testing.T) {
	exec := &stubExecutor{}
	c := command.New(config.Collaborators{ScanCommand: "nab-scan", ScanMissingCommand: "nab-missing"}, logging.NewNop(), command.WithExecutor(exec))
	if err := c.ScanMissingSegments(context.Background(), "alt.binaries.test"); err != nil {
		t.Fatalf("ScanMissingSegments returned error: %v", err)
	}
	if exec.binaries[0] != "nab-missing" || !slices.Equal(exec.args[0], []string{"missing", "--group", "alt.binaries.test"}) {
		t.Fatalf("unexpected invocation: %s %v", exec.binaries[0], exec.args[0])
	}
}

func TestUnconfiguredScanIsAnError(t *testing.T) {
	exec := &stubExecutor{}
	c := command.New(config.Collaborators{}, logging.NewNop(), command.WithExecutor(exec))
	err := c.ScanGroup(context.Background(), scan.UpdateJobs([]string{"alt.binaries.test"}, 1)[0])
	if !errors.Is(err, command.ErrNotConfigured) || !services.IsConfiguration(err) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if len(exec.binaries) != 0 {
		t.Fatal("expected nothing executed")
	}
}

func TestUnconfiguredPipelineIsNoop(t *testing.T) {
	exec := &stubExecutor{}
	c := command.New(config.Collaborators{}, logging.NewNop(), command.WithExecutor(exec))
	if err := c.ProcessBinaries(context.Background()); err != nil {
		t.Fatalf("ProcessBinaries returned error: %v", err)
	}
	if err := c.ProcessReleases(context.Background()); err != nil {
		t.Fatalf("ProcessReleases returned error: %v", err)
	}
	if len(exec.binaries) != 0 {
		t.Fatal("expected nothing executed")
	}
}

func TestExecutorFailureIsExternalToolError(t *testing.T) {
	base := errors.New("exit status 1")
	exec := &stubExecutor{err: base}
	c := command.New(config.Collaborators{BinariesCommand: "nab-process", ReleasesCommand: "nab-process"}, logging.NewNop(), command.WithExecutor(exec))
	err := c.ProcessBinaries(context.Background())
	if !errors.Is(err, services.ErrExternalTool) || !errors.Is(err, base) {
		t.Fatalf("expected wrapped external tool error, got %v", err)
	}
	if err := c.ProcessReleases(context.Background()); err == nil {
		t.Fatal("expected releases failure")
	}
	if !slices.Equal(exec.args[0], []string{"binaries"}) || !slices.Equal(exec.args[1], []string{"releases"}) {
		t.Fatalf("unexpected args: %v", exec.args)
	}
}
