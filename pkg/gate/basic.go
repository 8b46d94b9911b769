package gate

import (
	"encoding/base64"
	"strings"
)

// basicScheme is the Authorization scheme token handled by the gate.
// Matching is case-insensitive per RFC 7235 §2.1.
const basicScheme = "Basic"

// Credentials is a username/password pair parsed from an Authorization
// header. Both fields are non-empty after a successful decode.
type Credentials struct {
	Username string
	Password string
}

// DecodeBasic parses the raw value of an Authorization header.
//
// It returns ok=false for every shape of "no attempt made": an absent or
// empty header, a non-Basic scheme, malformed base64, a decoded payload
// without a colon, or an empty username or password. None of these are
// errors; the request simply carries no usable Basic credentials.
//
// The payload is split on the first colon, so passwords may themselves
// contain colons. DecodeBasic is a pure function with no side effects.
func DecodeBasic(header string) (Credentials, bool) {
	scheme, rest, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, basicScheme) {
		return Credentials{}, false
	}

	payload, err := base64.StdEncoding.DecodeString(strings.TrimSpace(rest))
	if err != nil {
		return Credentials{}, false
	}

	username, password, found := strings.Cut(string(payload), ":")
	if !found || username == "" || password == "" {
		return Credentials{}, false
	}

	return Credentials{Username: username, Password: password}, true
}
