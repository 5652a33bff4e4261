// Package volumio holds the browse payload shapes the Volumio UI consumes.
package volumio

// BrowseSource is a root-level entry in the Volumio browse view.
type BrowseSource struct {
	Name       string `json:"name"`
	URI        string `json:"uri"`
	PluginType string `json:"plugin_type"`
	PluginName string `json:"plugin_name"`
	AlbumArt   string `json:"albumart"`
	Icon       string `json:"icon,omitempty"`
}

// BrowseItem is a single item in a browse list. URI carries the navigation
// token for the next round trip; leaf tracks are played by submitting their
// URI to the playback handler.
type BrowseItem struct {
	Service     string `json:"service"`
	Type        string `json:"type"` // folder, song, album, artist, playlist
	Title       string `json:"title"`
	Artist      string `json:"artist,omitempty"`
	Album       string `json:"album,omitempty"`
	AlbumArt    string `json:"albumart,omitempty"`
	URI         string `json:"uri"`
	Icon        string `json:"icon,omitempty"`
	Duration    int    `json:"duration,omitempty"`
	TrackNumber int    `json:"tracknumber,omitempty"`
	Year        int    `json:"year,omitempty"`
}

// BrowseList is an ordered section of items.
type BrowseList struct {
	Title             string       `json:"title,omitempty"`
	AvailableListView []string     `json:"availableListViews,omitempty"`
	Items             []BrowseItem `json:"items"`
}

// Navigation is the tree of sections for one browse page.
type Navigation struct {
	Lists   []BrowseList `json:"lists,omitempty"`
	Info    *BrowseInfo  `json:"info,omitempty"`
	PrevURI string       `json:"prev,omitempty"`
}

// BrowseInfo describes the current browse location.
type BrowseInfo struct {
	URI      string `json:"uri"`
	Title    string `json:"title,omitempty"`
	Service  string `json:"service,omitempty"`
	Type     string `json:"type,omitempty"`
	AlbumArt string `json:"albumart,omitempty"`
	Artist   string `json:"artist,omitempty"`
	Year     int    `json:"year,omitempty"`
}

// BrowseResult is the complete response for one browse request.
type BrowseResult struct {
	Navigation Navigation `json:"navigation"`
}
