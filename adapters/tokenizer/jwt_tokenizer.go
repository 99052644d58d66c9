package tokenizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/layer-3/snappa/core"
	"github.com/layer-3/snappa/ports"
)

// JWTTokenizer implements the Tokenizer interface using HMAC-signed JWTs
type JWTTokenizer struct {
	secret []byte
	method jwt.SigningMethod
	parser *jwt.Parser
}

// Option configures a JWTTokenizer
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the clock used to validate expiry
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewJWTTokenizer creates a tokenizer signing with secret and the named HMAC
// algorithm. A missing secret or unsupported algorithm is a configuration error.
func NewJWTTokenizer(secret, algorithm string, opts ...Option) (ports.Tokenizer, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: signing secret is not set", core.ErrConfiguration)
	}
	if algorithm == "" {
		return nil, fmt.Errorf("%w: signing algorithm is not set", core.ErrConfiguration)
	}

	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported signing algorithm %q", core.ErrConfiguration, algorithm)
	}

	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithSubject(core.SubjectFarcasterUser),
		jwt.WithTimeFunc(o.now),
	)

	return &JWTTokenizer{
		secret: []byte(secret),
		method: method,
		parser: parser,
	}, nil
}

// SessionToToken converts a Session to a signed JWT
func (j *JWTTokenizer) SessionToToken(session *core.Session) (string, error) {
	if session == nil || !session.FID.Valid() {
		return "", core.ErrInvalidClaim
	}

	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.Subject,
			IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
		FID: json.RawMessage(session.FID.String()),
	}

	token := jwt.NewWithClaims(j.method, claims)

	signedToken, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// TokenToSession verifies a JWT and returns its session. A structurally valid
// token whose fid is missing or not a positive integer yields a session with
// a zero FID; callers must check FID.Valid.
func (j *JWTTokenizer) TokenToSession(tokenStr string) (*core.Session, error) {
	token, err := j.parser.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return j.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, core.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, core.ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return nil, fmt.Errorf("%w: invalid claims type", core.ErrInvalidToken)
	}

	session := &core.Session{
		Subject: claims.Subject,
	}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	// Only an unquoted integer literal is an identity claim
	if fid, err := strconv.ParseUint(string(claims.FID), 10, 64); err == nil {
		session.FID = core.FID(fid)
	}

	return session, nil
}
