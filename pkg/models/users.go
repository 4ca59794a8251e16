package models

// User is the public view of an account as returned by the API and carried in
// presence listings. Password material never leaves the server.
type User struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Online bool   `json:"online"`
}

// Channel is the public view of a channel with its persisted member count.
type Channel struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Members int64  `json:"members"`
}
