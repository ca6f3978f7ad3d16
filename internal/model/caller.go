package model

// Caller is the verified identity of the account making a request.
// It is injected into the request context by the auth middleware.
type Caller struct {
	UserID string
	Email  string
}
