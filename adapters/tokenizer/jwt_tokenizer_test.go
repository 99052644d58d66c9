package tokenizer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/layer-3/snappa/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough"

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func TestNewJWTTokenizer_Configuration(t *testing.T) {
	tests := []struct {
		name      string
		secret    string
		algorithm string
		wantErr   bool
	}{
		{"hs256", testSecret, "HS256", false},
		{"hs384", testSecret, "HS384", false},
		{"hs512", testSecret, "HS512", false},
		{"missing secret", "", "HS256", true},
		{"missing algorithm", testSecret, "", true},
		{"asymmetric algorithm", testSecret, "ES256", true},
		{"unknown algorithm", testSecret, "none", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := NewJWTTokenizer(tt.secret, tt.algorithm)
			if tt.wantErr {
				require.ErrorIs(t, err, core.ErrConfiguration)
				assert.Nil(t, tok)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, tok)
		})
	}
}

func TestJWTTokenizer_RoundTrip(t *testing.T) {
	tok, err := NewJWTTokenizer(testSecret, "HS256")
	require.NoError(t, err)

	for _, fid := range []core.FID{1, 123, 999999, 1<<53 - 1} {
		session := core.NewSession(fid, time.Now())

		token, err := tok.SessionToToken(session)
		require.NoError(t, err)

		got, err := tok.TokenToSession(token)
		require.NoError(t, err)
		assert.Equal(t, fid, got.FID)
		assert.Equal(t, core.SubjectFarcasterUser, got.Subject)
		assert.Equal(t, core.SessionLifetime, got.ExpiresAt.Sub(got.IssuedAt))
	}
}

func TestJWTTokenizer_Expiry(t *testing.T) {
	issuedAt := time.Unix(1_700_000_000, 0)
	clock := &fakeClock{now: issuedAt}

	tok, err := NewJWTTokenizer(testSecret, "HS256", WithClock(clock.Now))
	require.NoError(t, err)

	token, err := tok.SessionToToken(core.NewSession(42, issuedAt))
	require.NoError(t, err)

	clock.now = issuedAt.Add(86399 * time.Second)
	session, err := tok.TokenToSession(token)
	require.NoError(t, err)
	assert.Equal(t, core.FID(42), session.FID)

	clock.now = issuedAt.Add(86401 * time.Second)
	_, err = tok.TokenToSession(token)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestJWTTokenizer_RejectsForeignTokens(t *testing.T) {
	tok, err := NewJWTTokenizer(testSecret, "HS256")
	require.NoError(t, err)

	now := time.Now()
	sign := func(method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	valid := func(subject string) SessionClaims {
		return SessionClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   subject,
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
			FID: json.RawMessage("7"),
		}
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"wrong secret", sign(jwt.SigningMethodHS256, []byte("other-secret"), valid(core.SubjectFarcasterUser))},
		{"wrong algorithm", sign(jwt.SigningMethodHS512, []byte(testSecret), valid(core.SubjectFarcasterUser))},
		{"wrong subject", sign(jwt.SigningMethodHS256, []byte(testSecret), valid("someone_else"))},
		{"no expiry", sign(jwt.SigningMethodHS256, []byte(testSecret), SessionClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: core.SubjectFarcasterUser},
			FID:              json.RawMessage("7"),
		})},
		{"none algorithm", sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid(core.SubjectFarcasterUser))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tok.TokenToSession(tt.token)
			assert.ErrorIs(t, err, core.ErrInvalidToken)
		})
	}
}

func TestJWTTokenizer_MissingFIDYieldsInvalidSession(t *testing.T) {
	tok, err := NewJWTTokenizer(testSecret, "HS256")
	require.NoError(t, err)

	now := time.Now()
	for _, fid := range []string{"", "0", "-4", "1.5", `"123"`, `"abc"`, "true", "null", "[1]"} {
		claims := SessionClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   core.SubjectFarcasterUser,
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		}
		if fid != "" {
			claims.FID = json.RawMessage(fid)
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		session, err := tok.TokenToSession(token)
		require.NoError(t, err, "fid %q", fid)
		assert.False(t, session.FID.Valid(), "fid %q", fid)
	}
}

func TestJWTTokenizer_RefusesInvalidSession(t *testing.T) {
	tok, err := NewJWTTokenizer(testSecret, "HS256")
	require.NoError(t, err)

	_, err = tok.SessionToToken(core.NewSession(0, time.Now()))
	assert.ErrorIs(t, err, core.ErrInvalidClaim)
}
