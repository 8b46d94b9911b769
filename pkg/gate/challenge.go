package gate

import (
	"fmt"
	"net/http"
)

// Challenge produces the response for a rejected authentication attempt.
// The conventional contract is an HTTP 401 with a WWW-Authenticate header,
// but the exact response is the responder's business, not the gate's.
type Challenge interface {
	Respond(w http.ResponseWriter, r *http.Request, cause error)
}

// DefaultRealm is used by BasicChallenge when no realm is configured.
const DefaultRealm = "einlass"

// BasicChallenge writes a 401 response with a Basic challenge header,
// prompting the client to (re-)authenticate.
type BasicChallenge struct {
	// Realm is advertised in the WWW-Authenticate header.
	Realm string
}

// Respond writes the 401 challenge. The failure cause is not exposed to
// the client; unknown-user and bad-password responses are identical.
func (c *BasicChallenge) Respond(w http.ResponseWriter, r *http.Request, _ error) {
	realm := c.Realm
	if realm == "" {
		realm = DefaultRealm
	}
	w.Header().Set("WWW-Authenticate", fmt.Sprintf("%s realm=%q", basicScheme, realm))
	http.Error(w, `{"error":{"type":"unauthorized","message":"authentication required"}}`, http.StatusUnauthorized)
}
