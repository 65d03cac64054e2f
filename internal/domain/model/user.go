package model

// UserProfile identifies the requester of a job and the holder of a session.
type UserProfile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture,omitempty"`
	IsAdmin bool   `json:"isAdmin,omitempty"`
}
