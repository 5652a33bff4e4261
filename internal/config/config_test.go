package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/mochan-b/plex-volumio/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	if cfg.Server.Port != "3002" {
		t.Errorf("server port = %q", cfg.Server.Port)
	}
	if cfg.MPD.Host != "localhost" || cfg.MPD.Port != 6600 {
		t.Errorf("mpd defaults = %s:%d", cfg.MPD.Host, cfg.MPD.Port)
	}
	if cfg.Browse.PageSize != 100 {
		t.Errorf("page size = %d", cfg.Browse.PageSize)
	}
	if got := cfg.Plex.GetHTTPTimeout(); got != 30*time.Second {
		t.Errorf("http timeout = %v", got)
	}
}

func TestHasConnection(t *testing.T) {
	tests := []struct {
		name string
		plex config.PlexConfig
		want bool
	}{
		{"empty", config.PlexConfig{}, false},
		{"token only", config.PlexConfig{Token: "tok"}, false},
		{"no port", config.PlexConfig{Token: "tok", Host: "192.168.1.50"}, false},
		{"complete", config.PlexConfig{Token: "tok", Host: "192.168.1.50", Port: 32400}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.plex.HasConnection(); got != tt.want {
				t.Errorf("HasConnection() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClearCredentials(t *testing.T) {
	plex := config.PlexConfig{
		ClientID: "client-123",
		Token:    "tok",
		ServerID: "abc",
		Host:     "192.168.1.50",
		Port:     32400,
		UseTLS:   true,
	}

	plex.ClearCredentials()

	if plex.HasConnection() {
		t.Error("connection still on file after clearing")
	}
	if plex.UseTLS {
		t.Error("scheme survived clearing")
	}
	if plex.Token != "" || plex.ServerID != "" {
		t.Errorf("credentials survived clearing: %+v", plex)
	}
	if plex.ClientID != "client-123" {
		t.Errorf("client identifier = %q, must survive a logout", plex.ClientID)
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MPD.Port != 6600 {
		t.Errorf("mpd port = %d", cfg.MPD.Port)
	}
	if cfg.Plex.ClientID == "" {
		t.Error("expected a generated client identifier")
	}
}

func TestSaveWritesBackToLoadedFile(t *testing.T) {
	// Search paths expand $HOME when added, so start from a clean viper.
	viper.Reset()
	home := t.TempDir()
	t.Setenv("HOME", home)
	confDir := filepath.Join(home, ".config")
	if err := os.MkdirAll(confDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(confDir, "plexvolumio.toml")
	if err := os.WriteFile(path, []byte("[plex]\ntoken = \"stale\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(t.TempDir())

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Plex.Token = "fresh"
	if err := config.Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading back the loaded file: %v", err)
	}
	if !strings.Contains(string(data), "fresh") {
		t.Errorf("loaded file not updated:\n%s", data)
	}
	if _, err := os.Stat("plexvolumio.toml"); !errors.Is(err, os.ErrNotExist) {
		t.Error("save forked a second file into the working directory")
	}
}
