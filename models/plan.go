package models

// Plan is a purchasable subscription pass.
type Plan struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	OriginalPrice float64 `json:"original_price,omitempty"`
	Days          int     `json:"days"`
	Devices       int     `json:"devices"`
	Featured      bool    `json:"featured,omitempty"`
}

// Sale records one completed subscription purchase.
type Sale struct {
	ID       int     `json:"id"`
	ViewerID int     `json:"viewer_id"`
	Viewer   string  `json:"viewer"`
	Plan     string  `json:"plan"`
	Price    float64 `json:"price"`
	PayPal   string  `json:"paypal,omitempty"`
	Created  string  `json:"created"`
}
