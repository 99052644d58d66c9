package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/snappa/core"
	"github.com/layer-3/snappa/service"
)

// tokenCookieMaxAge matches the session lifetime in seconds
const tokenCookieMaxAge = int(core.SessionLifetime / time.Second)

// AuthHandlers contains HTTP handlers for auth endpoints
type AuthHandlers struct {
	authService *service.AuthService
	cookieAuth  bool
}

// NewAuthHandlers creates new auth handlers. With cookieAuth set, issued
// tokens are also returned as a cookie.
func NewAuthHandlers(authService *service.AuthService, cookieAuth bool) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		cookieAuth:  cookieAuth,
	}
}

type signInRequest struct {
	IdentityClaim uint64  `json:"identityClaim"`
	Message       string  `json:"message"`
	Signature     string  `json:"signature" binding:"required"`
	ReferrerClaim *uint64 `json:"referrerClaim"`
}

type localSignInRequest struct {
	IdentityClaim uint64 `json:"identityClaim"`
}

// SignIn handles the signature sign-in request
func (h *AuthHandlers) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	signIn := service.SignInRequest{
		FID:       core.FID(req.IdentityClaim),
		Message:   req.Message,
		Signature: req.Signature,
	}
	if req.ReferrerClaim != nil {
		referrer := core.FID(*req.ReferrerClaim)
		signIn.ReferrerFID = &referrer
	}

	result, err := h.authService.SignIn(c.Request.Context(), signIn)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errorMsg := "Authentication failed"

		// Map specific errors to appropriate status codes
		switch {
		case errors.Is(err, core.ErrInvalidClaim), errors.Is(err, core.ErrMalformedRequest):
			statusCode = http.StatusBadRequest
			errorMsg = "Invalid request"
		case errors.Is(err, core.ErrUserNotFound):
			statusCode = http.StatusNotFound
			errorMsg = fmt.Sprintf("User not found: %s", signIn.FID)
		case errors.Is(err, core.ErrInvalidSignature):
			statusCode = http.StatusUnauthorized
			errorMsg = "Invalid signature"
		case errors.Is(err, core.ErrDirectory):
			statusCode = http.StatusBadGateway
			errorMsg = "Identity directory unavailable"
		}

		c.JSON(statusCode, gin.H{"error": errorMsg})
		return
	}

	h.respondWithToken(c, result)
}

// LocalSignIn issues a token without a signature when dev mode is enabled
func (h *AuthHandlers) LocalSignIn(c *gin.Context) {
	// A disabled route answers 401 whatever the body
	var req localSignInRequest
	if err := c.ShouldBindJSON(&req); err != nil && h.authService.DevMode() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result, err := h.authService.LocalSignIn(c.Request.Context(), core.FID(req.IdentityClaim))
	if err != nil {
		switch {
		case errors.Is(err, core.ErrLocalSignIn):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Local sign-in is disabled"})
		case errors.Is(err, core.ErrInvalidClaim):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Authentication failed"})
		}
		return
	}

	h.respondWithToken(c, result)
}

// LoggedIn reports whether the request carries a valid token cookie
func (h *AuthHandlers) LoggedIn(c *gin.Context) {
	token, err := c.Cookie(TokenCookie)
	if err != nil || token == "" {
		c.JSON(http.StatusOK, gin.H{"loggedIn": false})
		return
	}

	session, err := h.authService.ValidateToken(c.Request.Context(), token)
	c.JSON(http.StatusOK, gin.H{"loggedIn": err == nil && session.FID.Valid()})
}

// Me returns the identity claim of the authenticated caller
func (h *AuthHandlers) Me(c *gin.Context) {
	session, ok := SessionFromContext(c)
	if !ok || !session.FID.Valid() {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success":       false,
			"identityClaim": nil,
			"error":         "Unauthenticated",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"identityClaim": session.FID,
	})
}

// SignOut clears the token cookie. Tokens are not revoked.
func (h *AuthHandlers) SignOut(c *gin.Context) {
	session, _ := SessionFromContext(c)
	if err := h.authService.SignOut(c.Request.Context(), session); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthenticated"})
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(TokenCookie, "", -1, "/", "", true, true)

	c.JSON(http.StatusOK, gin.H{"message": "Signed out successfully"})
}

func (h *AuthHandlers) respondWithToken(c *gin.Context, result *service.SignInResult) {
	if h.cookieAuth {
		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(TokenCookie, result.Token, tokenCookieMaxAge, "/", "", true, true)
	}

	c.JSON(http.StatusOK, gin.H{
		"token":         result.Token,
		"identityClaim": result.FID,
	})
}
