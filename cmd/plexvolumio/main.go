// Package main is the entry point for the Plex Volumio backend.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mochan-b/plex-volumio/internal/config"
	"github.com/mochan-b/plex-volumio/internal/domain/browse"
	"github.com/mochan-b/plex-volumio/internal/domain/catalog"
	"github.com/mochan-b/plex-volumio/internal/domain/plex"
	"github.com/mochan-b/plex-volumio/internal/infra/mpd"
	"github.com/mochan-b/plex-volumio/internal/infra/plextv"
	"github.com/mochan-b/plex-volumio/internal/infra/pms"
	"github.com/mochan-b/plex-volumio/internal/transport/socketio"
	"github.com/mochan-b/plex-volumio/internal/version"
)

func main() {
	// Command line flags override the config file
	port := flag.String("port", "", "HTTP server port")
	mpdHost := flag.String("mpd-host", "", "MPD host")
	mpdPort := flag.Int("mpd-port", 0, "MPD port")
	mpdPassword := flag.String("mpd-password", "", "MPD password")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *mpdHost != "" {
		cfg.MPD.Host = *mpdHost
	}
	if *mpdPort != 0 {
		cfg.MPD.Port = *mpdPort
	}
	if *mpdPassword != "" {
		cfg.MPD.Password = *mpdPassword
	}

	// Print startup banner
	versionInfo := version.GetInfo()
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().Msgf("  %s", versionInfo.String())
	log.Info().Msg("  Plex Music Backend for Volumio")
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().
		Str("port", cfg.Server.Port).
		Str("mpd_host", cfg.MPD.Host).
		Int("mpd_port", cfg.MPD.Port).
		Bool("plex_connected", cfg.Plex.HasConnection()).
		Msg("Configuration")

	// Create MPD client
	mpdClient := mpd.NewClient(cfg.MPD.Host, cfg.MPD.Port, cfg.MPD.Password)
	if err := mpdClient.Connect(); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MPD")
	}
	defer mpdClient.Close()
	log.Info().Msg("MPD connection verified")

	// Restore a persisted server connection, if any
	conns := &plex.ConnectionStore{}
	if cfg.Plex.HasConnection() {
		conns.Set(plex.Connection{
			Host:   cfg.Plex.Host,
			Port:   cfg.Plex.Port,
			Token:  cfg.Plex.Token,
			UseTLS: cfg.Plex.UseTLS,
		})
		log.Info().Str("host", cfg.Plex.Host).Int("port", cfg.Plex.Port).Msg("Restored media server connection")
	}

	// Build the browse stack
	gateway := pms.NewClient(conns, pms.WithHTTPClient(&http.Client{Timeout: cfg.Plex.GetHTTPTimeout()}))
	facade := catalog.NewService(gateway)
	nav := browse.NewNavigator(facade, conns,
		browse.WithPageSize(cfg.Browse.PageSize),
		browse.WithTranscode(plex.TranscodeOptions{
			Enabled: cfg.Plex.Transcode,
			Format:  cfg.Plex.TranscodeFormat,
		}))

	session := plextv.NewLoginSession(plextv.NewClient(cfg.Plex.ClientID))

	// Create Socket.io server
	socketServer, err := socketio.NewServer(nav, mpdClient, session, conns, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Socket.io server")
	}
	defer socketServer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := socketServer.StartMPDWatcher(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start MPD watcher")
	}

	// Setup HTTP server
	mux := http.NewServeMux()
	mux.Handle("/socket.io/", socketServer)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := mpdClient.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"error","mpd":"disconnected"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","mpd":"connected"}`))
	})

	mux.HandleFunc("/api/v1/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(version.GetInfo())
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      corsMiddleware(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info().Msg("Shutting down...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	log.Info().Str("addr", ":"+cfg.Server.Port).Msg("HTTP server listening")
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("HTTP server error")
	}

	log.Info().Msg("Server stopped")
}
