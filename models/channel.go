package models

// DefaultCategoryID is the built-in category every portal starts with;
// deleting another category reassigns its channels here.
const DefaultCategoryID = 1

// Category groups curated channels in the portal UI.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// CuratedChannel is a hand-managed portal channel, as opposed to a
// Channel parsed out of an imported M3U list. Iframe mirrors the first
// entry of Servers for older clients.
type CuratedChannel struct {
	ID         int      `json:"id"`
	Name       string   `json:"name"`
	Servers    []string `json:"servers"`
	Iframe     string   `json:"iframe"`
	Icon       string   `json:"icon"`
	CategoryID int      `json:"category_id"`
}
