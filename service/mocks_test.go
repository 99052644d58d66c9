package service

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/layer-3/snappa/core"
	"github.com/layer-3/snappa/ports"
)

// addressBehavior scripts how mockVerifier answers for one address
type addressBehavior struct {
	result bool
	delay  time.Duration
	err    error
	panics bool
	block  bool // ignore the context and never answer
}

type mockVerifier struct {
	mu        sync.Mutex
	behaviors map[common.Address]addressBehavior
	calls     []common.Address
	cancelled map[common.Address]bool
}

func newMockVerifier(behaviors map[common.Address]addressBehavior) *mockVerifier {
	return &mockVerifier{behaviors: behaviors, cancelled: make(map[common.Address]bool)}
}

func (m *mockVerifier) Verify(ctx context.Context, address common.Address, message, signature string) (bool, error) {
	m.mu.Lock()
	m.calls = append(m.calls, address)
	b := m.behaviors[address]
	m.mu.Unlock()

	if b.block {
		select {}
	}
	if b.panics {
		panic("verifier exploded")
	}

	select {
	case <-time.After(b.delay):
	case <-ctx.Done():
		m.mu.Lock()
		m.cancelled[address] = true
		m.mu.Unlock()
		return false, ctx.Err()
	}

	return b.result, b.err
}

func (m *mockVerifier) wasCancelled(address common.Address) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancelled[address]
}

type mockDirectory struct {
	users       map[core.FID]*core.DirectoryUser
	err         error
	invalidated []core.FID
}

func (d *mockDirectory) GetUser(ctx context.Context, fid core.FID) (*core.DirectoryUser, error) {
	if d.err != nil {
		return nil, d.err
	}
	user, ok := d.users[fid]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	return user, nil
}

func (d *mockDirectory) Invalidate(ctx context.Context, fid core.FID) error {
	d.invalidated = append(d.invalidated, fid)
	return nil
}

type recordingPublisher struct {
	mu         sync.Mutex
	signIns    []ports.SignedInEvent
	signOuts   []core.FID
	publishErr error
}

func (p *recordingPublisher) PublishSignIn(ctx context.Context, event ports.SignedInEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signIns = append(p.signIns, event)
	return p.publishErr
}

func (p *recordingPublisher) PublishSignOut(ctx context.Context, fid core.FID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signOuts = append(p.signOuts, fid)
	return p.publishErr
}
