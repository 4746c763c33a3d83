package auth

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Identity is the resolved caller record used for authorization decisions.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// HeaderIdentityName is the fallback header carrying a raw JSON identity
// blob. Trust-on-read: nothing about it is verified, so the resolver below
// must only be wired up for local development.
const HeaderIdentityName = "x-user-data"

// FromTrustedHeader decodes the caller identity from the x-user-data header.
// Malformed or absent payloads resolve to nil, never an error.
func FromTrustedHeader(r *http.Request) *Identity {
	raw := strings.TrimSpace(r.Header.Get(HeaderIdentityName))
	if raw == "" {
		return nil
	}
	var identity Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		return nil
	}
	if identity.ID == "" {
		return nil
	}
	return &identity
}
