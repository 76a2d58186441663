package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()

	if info.Version == "" {
		t.Error("Version should not be empty")
	}
	if info.Commit == "" {
		t.Error("Commit should not be empty")
	}
	if info.Date == "" {
		t.Error("Date should not be empty")
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}

	expectedPlatform := runtime.GOOS + "/" + runtime.GOARCH
	if info.Platform != expectedPlatform {
		t.Errorf("Platform = %q, want %q", info.Platform, expectedPlatform)
	}
}

func TestGet_DefaultValues(t *testing.T) {
	info := Get()

	// Default version is "0.0.0-dev"
	if info.Version != "0.0.0-dev" && !strings.Contains(info.Version, ".") {
		t.Errorf("Version should be semver format, got %q", info.Version)
	}
}

func TestInfo_String(t *testing.T) {
	info := Info{
		Version: "2.1.0",
		Commit:  "deadbeef",
		Date:    "2024-06-01",
	}

	got := info.String()
	expected := "2.1.0 (deadbeef) built 2024-06-01"
	if got != expected {
		t.Errorf("String() = %q, want %q", got, expected)
	}
}

func TestPackageVariables(t *testing.T) {
	// These are set at build time, but have defaults
	if Version == "" {
		t.Error("Version variable should have a default value")
	}
	if Commit == "" {
		t.Error("Commit variable should have a default value")
	}
	if Date == "" {
		t.Error("Date variable should have a default value")
	}
}
