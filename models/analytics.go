package models

// View is one recorded playback event.
type View struct {
	Channel int    `json:"ch"`
	Name    string `json:"name"`
	Viewer  int    `json:"user,omitempty"`
	Time    string `json:"time"`
}

// DailyStat aggregates one calendar day of viewing.
type DailyStat struct {
	Views int   `json:"views"`
	Users []int `json:"users"`
}

// PopularEntry is the all-time counter for one channel.
type PopularEntry struct {
	Name  string `json:"name"`
	Views int    `json:"views"`
}
