package models

import "time"

// DateLayout is the day-resolution format used for account creation dates.
const DateLayout = "2006-01-02"

// Subscription is the plan currently attached to a viewer. Started and
// Expires are RFC 3339 stamps.
type Subscription struct {
	PlanID        int     `json:"plan_id"`
	PlanName      string  `json:"plan_name"`
	Price         float64 `json:"price"`
	Devices       int     `json:"devices"`
	Started       string  `json:"started"`
	Expires       string  `json:"expires"`
	PayPalOrderID string  `json:"paypal_order_id,omitempty"`
}

// ActiveAt reports whether the subscription is unexpired at the given
// instant. A malformed expiry counts as expired.
func (s *Subscription) ActiveAt(now time.Time) bool {
	if s == nil {
		return false
	}
	exp, err := time.Parse(time.RFC3339, s.Expires)
	if err != nil {
		return false
	}
	return exp.After(now)
}

// DaysLeft returns the whole days remaining at the given instant.
func (s *Subscription) DaysLeft(now time.Time) int {
	exp, err := time.Parse(time.RFC3339, s.Expires)
	if err != nil {
		return 0
	}
	d := exp.Sub(now)
	if d < 0 {
		return 0
	}
	return int(d.Hours() / 24)
}

// Viewer is a registered end user of the portal.
type Viewer struct {
	ID           int           `json:"id"`
	Username     string        `json:"username"`
	Email        string        `json:"email"`
	PasswordHash string        `json:"password"`
	Created      string        `json:"created"`
	Subscription *Subscription `json:"subscription"`
	Favorites    []int         `json:"favorites"`
}

// ViewerSummary is the admin-listing shape of a viewer account.
type ViewerSummary struct {
	ID           int           `json:"id"`
	Username     string        `json:"username"`
	Email        string        `json:"email"`
	Created      string        `json:"created"`
	Subscription *Subscription `json:"subscription"`
}
