package mpd_test

import (
	"testing"

	"github.com/mochan-b/plex-volumio/internal/infra/mpd"
)

// deadClient points at a port nothing listens on, so every operation that
// needs a connection fails deterministically.
func deadClient() *mpd.Client {
	return mpd.NewClient("localhost", 16600, "")
}

func TestNewClient(t *testing.T) {
	if deadClient() == nil {
		t.Error("NewClient should return a non-nil client")
	}
}

func TestClientConnectFailure(t *testing.T) {
	client := deadClient()

	if err := client.Connect(); err == nil {
		t.Error("Connect should fail for non-existent server")
		client.Close()
	}
}

func TestClientPingWithoutConnect(t *testing.T) {
	if err := deadClient().Ping(); err == nil {
		t.Error("Ping should fail when not connected")
	}
}

func TestClientStatusWithoutConnect(t *testing.T) {
	if _, err := deadClient().Status(); err == nil {
		t.Error("Status should fail when not connected")
	}
}

func TestClientPlayURLWithoutConnect(t *testing.T) {
	if err := deadClient().PlayURL("http://example.com/stream.flac"); err == nil {
		t.Error("PlayURL should fail when not connected")
	}
}

func TestClientQueueURLsEmpty(t *testing.T) {
	if err := deadClient().QueueURLs(nil); err == nil {
		t.Error("QueueURLs should reject an empty queue")
	}
}

func TestClientPlaybackControlsWithoutConnect(t *testing.T) {
	client := deadClient()

	controls := map[string]func() error{
		"Play":     func() error { return client.Play(0) },
		"Pause":    func() error { return client.Pause(true) },
		"Stop":     client.Stop,
		"Next":     client.Next,
		"Previous": client.Previous,
		"Clear":    client.Clear,
	}
	for name, op := range controls {
		if err := op(); err == nil {
			t.Errorf("%s should fail when not connected", name)
		}
	}
}

func TestClientWatchWithoutServer(t *testing.T) {
	if _, err := deadClient().Watch("player"); err == nil {
		t.Error("Watch should fail for non-existent server")
	}
}
