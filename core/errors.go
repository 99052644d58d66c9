package core

import "errors"

var (
	ErrConfiguration    = errors.New("invalid configuration")
	ErrUserNotFound     = errors.New("user not found")
	ErrDirectory        = errors.New("directory unavailable")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token has expired")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrInvalidClaim     = errors.New("invalid identity claim")
	ErrLocalSignIn      = errors.New("local sign-in is disabled")
	ErrMalformedRequest = errors.New("malformed request")
)
