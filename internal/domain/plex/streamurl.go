package plex

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	// transcodePath is the universal audio transcode endpoint of the
	// media server.
	transcodePath = "/music/:/transcode/universal/start"

	// RedactedToken replaces token values in anything user- or
	// log-visible.
	RedactedToken = "████████"
)

// transcodeTarget is the container/codec pair requested from the
// transcoder for a given output format.
type transcodeTarget struct {
	container  string
	audioCodec string
}

// transcodeTargets maps output formats to transcoder parameters. Unknown
// formats fall back to the mp3 entry.
var transcodeTargets = map[string]transcodeTarget{
	"mp3":  {container: "mp3", audioCodec: "mp3"},
	"flac": {container: "flac", audioCodec: "flac"},
	"aac":  {container: "mp4", audioCodec: "aac"},
}

// TranscodeOptions selects between bit-identical passthrough and transcoded
// delivery of a media part.
type TranscodeOptions struct {
	Enabled bool
	Format  string
}

// PlayableURL builds the fully qualified, authenticated URL for a media
// part. Passthrough mode appends the token to the part's location key
// verbatim; transcode mode routes through the universal transcoder with the
// primary media/part indices and a container/codec pair from the format
// table.
func PlayableURL(conn Connection, mediaKey string, opts TranscodeOptions) string {
	if !opts.Enabled {
		return appendToken(conn.BaseURL()+mediaKey, conn.Token)
	}

	target, ok := transcodeTargets[strings.ToLower(opts.Format)]
	if !ok {
		target = transcodeTargets["mp3"]
	}

	q := url.Values{}
	q.Set("path", mediaKey)
	q.Set("mediaIndex", "0")
	q.Set("partIndex", "0")
	q.Set("protocol", conn.Protocol())
	q.Set("container", target.container)
	q.Set("audioCodec", target.audioCodec)
	return appendToken(conn.BaseURL()+transcodePath+"?"+q.Encode(), conn.Token)
}

// ResourceURL builds the authenticated URL for an auxiliary asset such as
// artwork, given its server-relative path.
func ResourceURL(conn Connection, relativePath string) string {
	if relativePath == "" {
		return ""
	}
	return appendToken(conn.BaseURL()+relativePath, conn.Token)
}

// appendToken attaches the auth token as a query parameter, percent-encoded
// since tokens may contain '=', '&' and whitespace. Uses '&' when the URL
// already carries a query string.
func appendToken(rawURL, token string) string {
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%sX-Plex-Token=%s", rawURL, sep, url.QueryEscape(token))
}

var tokenParamPattern = regexp.MustCompile(`(X-Plex-Token=)[^&\s"']*`)

// RedactToken replaces the value of every token query parameter in s with a
// fixed marker. Any URL that reaches a log line or state surface goes
// through here first.
func RedactToken(s string) string {
	return tokenParamPattern.ReplaceAllString(s, "${1}"+RedactedToken)
}
