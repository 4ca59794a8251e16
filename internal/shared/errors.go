package shared

import "errors"

// error taxonomy shared by the HTTP API, the chat core and the stores
// handlers classify with errors.Is and map to a status code or an error event reason

var (
	ErrAuthenticationRejected = errors.New("authentication rejected")
	ErrMembershipDenied       = errors.New("membership denied")
	ErrPersistence            = errors.New("persistence failure")
	ErrValidation             = errors.New("validation failure")
	ErrNotFound               = errors.New("not found")

	ErrIdentityFixed = errors.New("connection already bound to another user")
	ErrNotIdentified = errors.New("connection has not identified")
)

// AuthClaims is the identity extracted from a verified access token.
type AuthClaims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}
