package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/layer-3/snappa/core"
	"github.com/layer-3/snappa/metrics"
	"github.com/layer-3/snappa/ports"
	"github.com/sirupsen/logrus"
)

var signaturePattern = regexp.MustCompile(`^0x[a-fA-F0-9]+$`)

// SignInRequest is a request to authenticate as FID by signature
type SignInRequest struct {
	FID         core.FID
	Message     string
	Signature   string
	ReferrerFID *core.FID
}

// SignInResult is the outcome of a successful sign-in
type SignInResult struct {
	Token     string
	FID       core.FID
	Address   string // verifying address, empty for local sign-in
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// AuthService handles sign-in and session validation
type AuthService struct {
	directory ports.Directory
	race      *VerificationRace
	tokenizer ports.Tokenizer
	eventPub  ports.EventPublisher
	logger    logrus.FieldLogger
	metrics   *metrics.Metrics

	devMode bool
	now     func() time.Time
}

// Option configures an AuthService
type Option func(*settings)

type settings struct {
	devMode       bool
	verifyTimeout time.Duration
	metrics       *metrics.Metrics
	now           func() time.Time
}

// WithDevMode enables the local sign-in path
func WithDevMode(enabled bool) Option {
	return func(s *settings) { s.devMode = enabled }
}

// WithVerifyTimeout bounds each per-address signature check
func WithVerifyTimeout(d time.Duration) Option {
	return func(s *settings) { s.verifyTimeout = d }
}

// WithMetrics records sign-in metrics on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *settings) { s.metrics = m }
}

// WithClock overrides the issuance clock
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// NewAuthService creates a new authentication service
func NewAuthService(
	directory ports.Directory,
	verifier ports.SignatureVerifier,
	tokenizer ports.Tokenizer,
	eventPub ports.EventPublisher,
	logger logrus.FieldLogger,
	opts ...Option,
) *AuthService {
	cfg := settings{
		verifyTimeout: DefaultVerifyTimeout,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &AuthService{
		directory: directory,
		race:      NewVerificationRace(verifier, cfg.verifyTimeout, logger, cfg.metrics),
		tokenizer: tokenizer,
		eventPub:  eventPub,
		logger:    logger,
		metrics:   cfg.metrics,
		devMode:   cfg.devMode,
		now:       cfg.now,
	}
}

// DevMode reports whether local sign-in is enabled
func (s *AuthService) DevMode() bool {
	return s.devMode
}

// ResolveAddresses returns the candidate signing addresses for fid
func (s *AuthService) ResolveAddresses(ctx context.Context, fid core.FID) (core.AddressSet, error) {
	user, err := s.directory.GetUser(ctx, fid)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) || errors.Is(err, core.ErrDirectory) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", core.ErrDirectory, err)
	}
	if user == nil {
		return nil, fmt.Errorf("fid %s: %w", fid, core.ErrUserNotFound)
	}

	return core.NewAddressSet(user), nil
}

// SignIn verifies that the signature was produced by one of the fid's
// addresses and issues a session token
func (s *AuthService) SignIn(ctx context.Context, req SignInRequest) (*SignInResult, error) {
	if err := validateSignIn(req); err != nil {
		return nil, err
	}

	log := s.logger.WithField("fid", req.FID)

	addresses, err := s.ResolveAddresses(ctx, req.FID)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			s.metrics.ObserveSignIn(metrics.OutcomeUserNotFound)
		} else {
			log.WithError(err).Error("failed to resolve addresses")
			s.metrics.ObserveSignIn(metrics.OutcomeDirectoryError)
		}
		return nil, err
	}

	address, verified := s.race.Run(ctx, addresses, req.Message, req.Signature)
	if !verified {
		// A caller that went away is not a bad signature
		if err := ctx.Err(); err != nil {
			log.WithError(err).Info("sign-in abandoned")
			return nil, err
		}
		log.WithField("candidates", len(addresses)).Info("signature matched no address")
		s.metrics.ObserveSignIn(metrics.OutcomeInvalidSignature)
		s.forgetAddresses(ctx, req.FID)
		return nil, core.ErrInvalidSignature
	}

	result, err := s.issue(req.FID)
	if err != nil {
		s.metrics.ObserveSignIn(metrics.OutcomeIssueError)
		return nil, err
	}
	result.Address = address.Hex()

	if err := s.eventPub.PublishSignIn(ctx, ports.SignedInEvent{
		FID:         req.FID,
		Address:     result.Address,
		ReferrerFID: req.ReferrerFID,
		IssuedAt:    result.IssuedAt.Unix(),
	}); err != nil {
		log.WithError(err).Warn("failed to publish sign-in event")
	}

	log.WithField("address", result.Address).Info("signed in")
	s.metrics.ObserveSignIn(metrics.OutcomeSuccess)

	return result, nil
}

// LocalSignIn issues a token for fid without any signature check. It is only
// available in dev mode.
func (s *AuthService) LocalSignIn(ctx context.Context, fid core.FID) (*SignInResult, error) {
	if !s.devMode {
		s.metrics.ObserveSignIn(metrics.OutcomeLocalRejected)
		return nil, core.ErrLocalSignIn
	}
	if !fid.Valid() {
		return nil, core.ErrInvalidClaim
	}

	result, err := s.issue(fid)
	if err != nil {
		s.metrics.ObserveSignIn(metrics.OutcomeIssueError)
		return nil, err
	}

	s.logger.WithField("fid", fid).Warn("issued token through local sign-in")
	s.metrics.ObserveSignIn(metrics.OutcomeLocal)

	return result, nil
}

// ValidateToken verifies a bearer token and returns its session. The
// session's FID is not checked here; see core.FID.Valid.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*core.Session, error) {
	if token == "" {
		return nil, core.ErrUnauthenticated
	}

	session, err := s.tokenizer.TokenToSession(token)
	if err != nil {
		if errors.Is(err, core.ErrTokenExpired) {
			return nil, core.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidToken, err)
	}

	return session, nil
}

// SignOut acknowledges the end of a session. Tokens stay valid until they
// expire; there is no revocation list.
func (s *AuthService) SignOut(ctx context.Context, session *core.Session) error {
	if session == nil || !session.FID.Valid() {
		return core.ErrUnauthenticated
	}

	if err := s.eventPub.PublishSignOut(ctx, session.FID); err != nil {
		s.logger.WithError(err).WithField("fid", session.FID).Warn("failed to publish sign-out event")
	}

	return nil
}

func (s *AuthService) issue(fid core.FID) (*SignInResult, error) {
	session := core.NewSession(fid, s.now())

	token, err := s.tokenizer.SessionToToken(session)
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	return &SignInResult{
		Token:     token,
		FID:       fid,
		IssuedAt:  session.IssuedAt,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// forgetAddresses drops a cached directory record so addresses verified
// since it was cached are seen on the next attempt.
func (s *AuthService) forgetAddresses(ctx context.Context, fid core.FID) {
	inv, ok := s.directory.(interface {
		Invalidate(ctx context.Context, fid core.FID) error
	})
	if !ok {
		return
	}
	if err := inv.Invalidate(ctx, fid); err != nil {
		s.logger.WithError(err).WithField("fid", fid).Warn("failed to invalidate directory cache")
	}
}

func validateSignIn(req SignInRequest) error {
	switch {
	case !req.FID.Valid():
		return core.ErrInvalidClaim
	case !signaturePattern.MatchString(req.Signature):
		return fmt.Errorf("%w: signature must be 0x-prefixed hex", core.ErrMalformedRequest)
	case req.ReferrerFID != nil && !req.ReferrerFID.Valid():
		return fmt.Errorf("%w: referrer must be a positive fid", core.ErrMalformedRequest)
	}
	return nil
}
