package preflight

import (
	"strings"
	"testing"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("State directory", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got %#v", result)
	}

	missing := CheckDirectoryAccess("State directory", dir+"/nope")
	if missing.Passed {
		t.Fatalf("expected failure for missing dir, got %#v", missing)
	}
	if !strings.Contains(missing.Detail, "does not exist") {
		t.Fatalf("unexpected detail: %q", missing.Detail)
	}
}

func TestCheckDiskSpace(t *testing.T) {
	result := CheckDiskSpace("State disk space", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass on temp filesystem, got %#v", result)
	}
}

func TestServerDescription(t *testing.T) {
	output := "Server String: /run/user/1000/pulse/native\nServer Name: PipeWire\nServer Version: 1.0.5\n"
	if got := serverDescription(output); got != "PipeWire 1.0.5" {
		t.Fatalf("unexpected description %q", got)
	}
	if got := serverDescription("garbage"); got != "reachable" {
		t.Fatalf("unexpected fallback %q", got)
	}
}
