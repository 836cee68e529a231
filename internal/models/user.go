package models

// User represents the authenticated user as returned by the backend.
// The client never persists this record; it is re-derived from the
// verify endpoint on every restore.
type User struct {
	ID       int    `json:"id"`       // User ID
	Username string `json:"username"` // Display name
	Email    string `json:"email"`    // User email
	Role     string `json:"role"`     // e.g. "customer", "agent"
}
