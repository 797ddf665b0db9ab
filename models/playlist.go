package models

// TimeLayout is the minute-resolution format used for playlist
// created/updated stamps ("2006-01-02 15:04").
const TimeLayout = "2006-01-02 15:04"

// Channel is a single entry parsed out of an M3U document.
type Channel struct {
	Name  string `json:"name"`
	Group string `json:"group"`
	URL   string `json:"url"`
	Logo  string `json:"logo"`
}

// Playlist is a stored M3U list sourced from one URL.
type Playlist struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	URL           string    `json:"url"`
	Channels      []Channel `json:"channels"`
	Categories    []string  `json:"categories"`
	ChannelsCount int       `json:"channels_count"`
	Created       string    `json:"created"`
	Updated       string    `json:"updated,omitempty"`
}

// PlaylistSummary is the lightweight listing shape; the channel payload
// never travels with it.
type PlaylistSummary struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	ChannelsCount int    `json:"channels_count"`
	Created       string `json:"created"`
	Updated       string `json:"updated"`
}

// Summary strips a playlist down to its listing fields.
func (p Playlist) Summary() PlaylistSummary {
	return PlaylistSummary{
		ID:            p.ID,
		Name:          p.Name,
		ChannelsCount: p.ChannelsCount,
		Created:       p.Created,
		Updated:       p.Updated,
	}
}
