package version_test

import (
	"strings"
	"testing"

	"github.com/mochan-b/plex-volumio/internal/version"
)

func TestVersionInfo(t *testing.T) {
	if version.Version == "" {
		t.Error("Version should not be empty")
	}
	if version.Name != "PlexVolumio" {
		t.Errorf("Expected name 'PlexVolumio', got '%s'", version.Name)
	}
}

func TestGetInfo(t *testing.T) {
	info := version.GetInfo()

	if info.Name != version.Name {
		t.Errorf("Expected name '%s', got '%s'", version.Name, info.Name)
	}
	if info.Version != version.Version {
		t.Errorf("Expected version '%s', got '%s'", version.Version, info.Version)
	}
}

func TestString(t *testing.T) {
	info := version.Info{Name: "PlexVolumio", Version: "1.2.3", GitCommit: "abcdef0123456789"}
	str := info.String()

	if !strings.Contains(str, "PlexVolumio v1.2.3") {
		t.Errorf("String() = %q", str)
	}
	if !strings.Contains(str, "abcdef0") {
		t.Errorf("String() should carry the short commit: %q", str)
	}
	if strings.Contains(str, "abcdef01") {
		t.Errorf("commit should be truncated to 7 chars: %q", str)
	}
}
