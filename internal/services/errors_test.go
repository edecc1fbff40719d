package services_test

import (
	"errors"
	"strings"
	"testing"

	"nabscan/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("exit status 2")
	err := services.Wrap(services.ErrExternalTool, "scan", "alt.binaries.test", "scan command failed", base)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"scan", "alt.binaries.test", "scan command failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarkerAndDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected default detail, got %q", err)
	}
}

func TestIsConfiguration(t *testing.T) {
	if !services.IsConfiguration(services.Wrap(services.ErrConfiguration, "scan", "", "not configured", nil)) {
		t.Fatal("expected configuration error to be detected")
	}
	if services.IsConfiguration(services.Wrap(services.ErrTimeout, "scan", "", "slow", nil)) {
		t.Fatal("expected timeout not to be a configuration error")
	}
}
