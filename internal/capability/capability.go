// Package capability issues and checks organizer capability tokens.
//
// A capability is an HMAC-signed bearer token bound to exactly one event.
// Possession of the token, not identity, is what authorizes organizer-only
// operations (lot creation, withdrawal, detail updates), so handing the token
// to someone else transfers organizing rights. A token is minted once,
// atomically with event creation, and never reissued.
package capability

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidCapability = errors.New("invalid capability token")

// Claims binds a capability token to one event.
type Claims struct {
	EventID uuid.UUID `json:"event_id"`
	jwt.RegisteredClaims
}

// Authority mints and verifies capability tokens. The signing secret must be
// distinct from the user-session JWT secret.
type Authority struct {
	secret []byte
}

// NewAuthority creates a capability authority with the given signing secret.
func NewAuthority(secret string) *Authority {
	return &Authority{secret: []byte(secret)}
}

// Mint creates the capability token for an event. Tokens carry no expiry: the
// withdrawal they gate happens after the event ends.
func (a *Authority) Mint(eventID uuid.UUID) (string, error) {
	claims := Claims{
		EventID: eventID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID: uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// Authorize reports whether the token is a valid capability for the event:
// the signature must verify and the bound event ID must match.
func (a *Authority) Authorize(token string, eventID uuid.UUID) bool {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidCapability
		}
		return a.secret, nil
	})
	if err != nil || !parsed.Valid {
		return false
	}
	claims, ok := parsed.Claims.(*Claims)
	return ok && claims.EventID == eventID
}
