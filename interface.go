package snappa

import (
	"context"
)

// Client represents the public interface for interacting with the sign-in service
type Client interface {
	// SignIn proves control of one of the fid's addresses and returns a session token
	SignIn(ctx context.Context, req SignInRequest) (*Session, error)

	// LocalSignIn returns a token without a signature. Only dev-mode servers accept it.
	LocalSignIn(ctx context.Context, fid uint64) (*Session, error)

	// Me returns the fid the token was issued for
	Me(ctx context.Context, token string) (uint64, error)

	// SignOut ends the session on the server side. The token itself stays
	// valid until it expires.
	SignOut(ctx context.Context, token string) error
}

// SignInRequest represents a sign-in request
type SignInRequest struct {
	FID       uint64  `json:"identityClaim"`
	Message   string  `json:"message"`
	Signature string  `json:"signature"`
	Referrer  *uint64 `json:"referrerClaim,omitempty"`
}

// Session is a successful sign-in response
type Session struct {
	Token string `json:"token"`
	FID   uint64 `json:"identityClaim"`
}
