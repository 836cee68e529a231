package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// nowFunc is swapped in tests.
var nowFunc = time.Now

// Expiry extracts the exp claim from a bearer token without verifying
// its signature. The backend remains the authority on validity; this is
// advisory, for display and log output only. The second return is false
// for opaque (non-JWT) tokens or tokens without an exp claim.
func Expiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
