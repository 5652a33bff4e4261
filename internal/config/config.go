// Package config loads and persists the backend configuration. Plex
// credentials acquired through the PIN login are written back here so a
// restart reconnects without user interaction.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	MPD    MPDConfig    `mapstructure:"mpd"`
	Plex   PlexConfig   `mapstructure:"plex"`
	Browse BrowseConfig `mapstructure:"browse"`
}

// ServerConfig contains the HTTP/Socket.io listener settings.
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// MPDConfig contains the MPD daemon connection settings.
type MPDConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
}

// PlexConfig contains the media server credentials and the selected
// connection. Token and the connection fields are empty until a PIN login
// completes.
type PlexConfig struct {
	ClientID        string `mapstructure:"client_id"`
	Token           string `mapstructure:"token"`
	ServerID        string `mapstructure:"server_id"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	UseTLS          bool   `mapstructure:"use_tls"`
	HTTPTimeout     int    `mapstructure:"http_timeout"` // in seconds
	Transcode       bool   `mapstructure:"transcode"`
	TranscodeFormat string `mapstructure:"transcode_format"`
}

// BrowseConfig contains browse page settings.
type BrowseConfig struct {
	PageSize int `mapstructure:"page_size"`
}

// GetHTTPTimeout returns the media server HTTP timeout as a time.Duration.
func (p *PlexConfig) GetHTTPTimeout() time.Duration {
	return time.Duration(p.HTTPTimeout) * time.Second
}

// HasConnection reports whether a usable server connection is on file.
func (p *PlexConfig) HasConnection() bool {
	return p.Token != "" && p.Host != "" && p.Port > 0
}

// ClearCredentials drops the token and the selected server connection,
// scheme included. The client identifier survives a logout.
func (p *PlexConfig) ClearCredentials() {
	p.Token = ""
	p.ServerID = ""
	p.Host = ""
	p.Port = 0
	p.UseTLS = false
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: "3002"},
		MPD: MPDConfig{
			Host: "localhost",
			Port: 6600,
		},
		Plex: PlexConfig{
			HTTPTimeout:     30,
			TranscodeFormat: "flac",
		},
		Browse: BrowseConfig{PageSize: 100},
	}
}

// Load reads the configuration from plexvolumio.toml. A missing file is not
// an error; defaults apply and the file appears on the first Save. The
// client identifier is generated once and then sticks.
func Load() (*Config, error) {
	viper.SetConfigName("plexvolumio")
	viper.SetConfigType("toml")
	viper.AddConfigPath("$HOME/.config/")
	viper.AddConfigPath(".")

	defaults := DefaultConfig()
	viper.SetDefault("server.port", defaults.Server.Port)
	viper.SetDefault("mpd.host", defaults.MPD.Host)
	viper.SetDefault("mpd.port", defaults.MPD.Port)
	viper.SetDefault("plex.http_timeout", defaults.Plex.HTTPTimeout)
	viper.SetDefault("plex.transcode_format", defaults.Plex.TranscodeFormat)
	viper.SetDefault("browse.page_size", defaults.Browse.PageSize)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Plex.ClientID == "" {
		cfg.Plex.ClientID = uuid.NewString()
	}

	return &cfg, nil
}

// Save writes the current configuration, including any credentials acquired
// since Load, back to the file Load found. On a first run no file exists
// yet, so one is created in the working directory.
func Save(cfg *Config) error {
	viper.Set("server.port", cfg.Server.Port)
	viper.Set("mpd.host", cfg.MPD.Host)
	viper.Set("mpd.port", cfg.MPD.Port)
	viper.Set("mpd.password", cfg.MPD.Password)
	viper.Set("plex.client_id", cfg.Plex.ClientID)
	viper.Set("plex.token", cfg.Plex.Token)
	viper.Set("plex.server_id", cfg.Plex.ServerID)
	viper.Set("plex.host", cfg.Plex.Host)
	viper.Set("plex.port", cfg.Plex.Port)
	viper.Set("plex.use_tls", cfg.Plex.UseTLS)
	viper.Set("plex.http_timeout", cfg.Plex.HTTPTimeout)
	viper.Set("plex.transcode", cfg.Plex.Transcode)
	viper.Set("plex.transcode_format", cfg.Plex.TranscodeFormat)
	viper.Set("browse.page_size", cfg.Browse.PageSize)

	err := viper.WriteConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to write config file: %w", err)
		}
		err = viper.WriteConfigAs("plexvolumio.toml")
	}
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
