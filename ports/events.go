package ports

import (
	"context"

	"github.com/layer-3/snappa/core"
)

// SignedInEvent describes a successful sign-in
type SignedInEvent struct {
	FID         core.FID
	Address     string
	ReferrerFID *core.FID
	IssuedAt    int64
}

// EventPublisher publishes events to notify other instances
type EventPublisher interface {
	PublishSignIn(ctx context.Context, event SignedInEvent) error
	PublishSignOut(ctx context.Context, fid core.FID) error
}
