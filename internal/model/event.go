package model

// Event is pushed to connected admin clients after a change is committed.
type Event struct {
	Type    string `json:"type"`   // category_update, product_update, quotation_update
	Action  string `json:"action"` // e.g. category_deleted, payment_applied
	Data    any    `json:"data,omitempty"`
	User    Actor  `json:"user"`
	Message string `json:"message"`
}
