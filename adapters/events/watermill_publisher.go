package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/layer-3/snappa/core"
	"github.com/layer-3/snappa/ports"
)

const (
	// TopicSignedIn receives an event per successful sign-in
	TopicSignedIn = "auth.signed_in"

	// TopicSignedOut receives an event per sign-out
	TopicSignedOut = "auth.signed_out"
)

// SignedInEvent is the wire form of a sign-in event
type SignedInEvent struct {
	FID         core.FID  `json:"fid"`
	Address     string    `json:"address"`
	ReferrerFID *core.FID `json:"referrer_fid,omitempty"`
	IssuedAt    int64     `json:"issued_at"`
}

// SignedOutEvent is the wire form of a sign-out event
type SignedOutEvent struct {
	FID core.FID `json:"fid"`
	At  int64    `json:"at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
	now       func() time.Time
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		now:       time.Now,
	}
}

// PublishSignIn publishes a sign-in event
func (p *WatermillPublisher) PublishSignIn(ctx context.Context, event ports.SignedInEvent) error {
	return p.publish(ctx, TopicSignedIn, SignedInEvent{
		FID:         event.FID,
		Address:     event.Address,
		ReferrerFID: event.ReferrerFID,
		IssuedAt:    event.IssuedAt,
	})
}

// PublishSignOut publishes a sign-out event
func (p *WatermillPublisher) PublishSignOut(ctx context.Context, fid core.FID) error {
	return p.publish(ctx, TopicSignedOut, SignedOutEvent{
		FID: fid,
		At:  p.now().Unix(),
	})
}

func (p *WatermillPublisher) publish(ctx context.Context, topic string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// NopPublisher drops all events
type NopPublisher struct{}

func (NopPublisher) PublishSignIn(ctx context.Context, event ports.SignedInEvent) error { return nil }
func (NopPublisher) PublishSignOut(ctx context.Context, fid core.FID) error          { return nil }
