package registry

import "time"

// Entry is one created app.
type Entry struct {
	Handle    string    `json:"handle"`
	Name      string    `json:"name"`
	Symbol    string    `json:"symbol"`
	Creator   string    `json:"creator"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateRequest is the body accepted by the create-app endpoint.
type CreateRequest struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}
