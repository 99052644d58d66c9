package tokenizer

import (
	"encoding/json"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims combines standard claims with the identity claim.
// FID is kept as raw JSON so a token carrying a malformed fid of any type
// still parses and can be rejected by the handler as unauthenticated.
type SessionClaims struct {
	jwt.RegisteredClaims
	FID json.RawMessage `json:"fid,omitempty"`
}
