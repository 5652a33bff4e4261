package player

import (
	"strconv"
	"strings"

	"github.com/fhs/gompd/v2/mpd"
)

// Status constants for player state.
const (
	StatusPlay  = "play"
	StatusPause = "pause"
	StatusStop  = "stop"
)

// BuildState converts MPD status and current song attributes into a
// Volumio-compatible state payload.
func BuildState(status, song mpd.Attrs) map[string]interface{} {
	state := make(map[string]interface{})

	switch status["state"] {
	case "play":
		state["status"] = StatusPlay
	case "pause":
		state["status"] = StatusPause
	default:
		state["status"] = StatusStop
	}

	if pos, err := strconv.Atoi(status["song"]); err == nil {
		state["position"] = pos
	} else {
		state["position"] = 0
	}

	// MPD reports elapsed in seconds with decimals; Volumio wants ms.
	if elapsed, err := strconv.ParseFloat(status["elapsed"], 64); err == nil {
		state["seek"] = int(elapsed * 1000)
	} else {
		state["seek"] = 0
	}

	if duration, err := strconv.ParseFloat(status["duration"], 64); err == nil {
		state["duration"] = int(duration)
	} else if duration, err := strconv.ParseFloat(song["Time"], 64); err == nil {
		state["duration"] = int(duration)
	} else {
		state["duration"] = 0
	}

	if vol, err := strconv.Atoi(status["volume"]); err == nil {
		state["volume"] = vol
	} else {
		state["volume"] = 100
	}

	state["random"] = status["random"] == "1"
	state["repeat"] = status["repeat"] == "1"
	state["repeatSingle"] = status["single"] == "1"

	state["title"] = song["Title"]
	if state["title"] == "" {
		if file := song["file"]; file != "" {
			parts := strings.Split(file, "/")
			state["title"] = parts[len(parts)-1]
		}
	}
	state["artist"] = song["Artist"]
	state["album"] = song["Album"]
	state["uri"] = song["file"]
	state["service"] = "plex"

	// Audio format is "samplerate:bits:channels", e.g. "44100:16:2".
	if audio := status["audio"]; audio != "" {
		parts := strings.Split(audio, ":")
		if len(parts) >= 2 {
			state["samplerate"] = parts[0]
			state["bitdepth"] = parts[1]
		}
	}

	return state
}
