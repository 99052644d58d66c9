package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/layer-3/snappa/core"
	"github.com/layer-3/snappa/metrics"
	"github.com/layer-3/snappa/ports"
	"github.com/sirupsen/logrus"
)

// DefaultVerifyTimeout bounds a single address check
const DefaultVerifyTimeout = 10 * time.Second

// VerificationRace checks a signature against every candidate address
// concurrently. It answers true as soon as any check succeeds and false only
// once every check has settled, so a fast failure never hides a slow success.
// A check that errors, panics or exceeds the timeout counts as false.
type VerificationRace struct {
	verifier ports.SignatureVerifier
	timeout  time.Duration
	logger   logrus.FieldLogger
	metrics  *metrics.Metrics
}

// NewVerificationRace creates a race using verifier for each address
func NewVerificationRace(verifier ports.SignatureVerifier, timeout time.Duration, logger logrus.FieldLogger, m *metrics.Metrics) *VerificationRace {
	if timeout <= 0 {
		timeout = DefaultVerifyTimeout
	}
	return &VerificationRace{
		verifier: verifier,
		timeout:  timeout,
		logger:   logger,
		metrics:  m,
	}
}

type raceOutcome struct {
	address  common.Address
	verified bool
}

type checkResult struct {
	ok  bool
	err error
}

// Run reports whether any of addresses signed message, and which one did.
// When several addresses verify, the reported one is whichever finished first.
func (r *VerificationRace) Run(ctx context.Context, addresses core.AddressSet, message, signature string) (common.Address, bool) {
	started := time.Now()
	if len(addresses) == 0 {
		r.metrics.ObserveRace(false, time.Since(started))
		return common.Address{}, false
	}

	// Cancelled on return so checks still in flight after a success are abandoned.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan raceOutcome, len(addresses))
	for _, addr := range addresses {
		go func(addr common.Address) {
			results <- raceOutcome{address: addr, verified: r.check(ctx, addr, message, signature)}
		}(addr)
	}

	for pending := len(addresses); pending > 0; pending-- {
		if res := <-results; res.verified {
			r.metrics.ObserveRace(true, time.Since(started))
			return res.address, true
		}
	}

	r.metrics.ObserveRace(false, time.Since(started))
	return common.Address{}, false
}

func (r *VerificationRace) check(ctx context.Context, address common.Address, message, signature string) bool {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	log := r.logger.WithField("address", address.Hex())

	done := make(chan checkResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- checkResult{err: fmt.Errorf("verifier panic: %v", p)}
			}
		}()
		ok, err := r.verifier.Verify(ctx, address, message, signature)
		done <- checkResult{ok: ok, err: err}
	}()

	select {
	case res := <-done:
		switch {
		case res.err != nil:
			log.WithError(res.err).Warn("signature check failed")
			r.metrics.ObserveAddressCheck(metrics.CheckError)
			return false
		case res.ok:
			r.metrics.ObserveAddressCheck(metrics.CheckValid)
			return true
		default:
			r.metrics.ObserveAddressCheck(metrics.CheckInvalid)
			return false
		}
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.WithField("timeout", r.timeout).Warn("signature check timed out")
			r.metrics.ObserveAddressCheck(metrics.CheckTimeout)
		}
		return false
	}
}
