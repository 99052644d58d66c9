package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/layer-3/snappa/core"
	"github.com/layer-3/snappa/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, messages <-chan *message.Message) *message.Message {
	t.Helper()
	select {
	case msg := <-messages:
		msg.Ack()
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestWatermillPublisher(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	signedIn, err := pubSub.Subscribe(ctx, TopicSignedIn)
	require.NoError(t, err)
	signedOut, err := pubSub.Subscribe(ctx, TopicSignedOut)
	require.NoError(t, err)

	pub := NewWatermillPublisher(pubSub)
	referrer := core.FID(77)

	require.NoError(t, pub.PublishSignIn(ctx, ports.SignedInEvent{
		FID:         123,
		Address:     "0xBBBbBBBBbbbBbbbbBBBbbBBbBbBBbbBBBbbBBbBb",
		ReferrerFID: &referrer,
		IssuedAt:    1_700_000_000,
	}))

	var in SignedInEvent
	require.NoError(t, json.Unmarshal(receive(t, signedIn).Payload, &in))
	assert.Equal(t, core.FID(123), in.FID)
	assert.Equal(t, "0xBBBbBBBBbbbBbbbbBBBbbBBbBbBBbbBBBbbBBbBb", in.Address)
	require.NotNil(t, in.ReferrerFID)
	assert.Equal(t, referrer, *in.ReferrerFID)
	assert.EqualValues(t, 1_700_000_000, in.IssuedAt)

	require.NoError(t, pub.PublishSignOut(ctx, 123))

	var out SignedOutEvent
	require.NoError(t, json.Unmarshal(receive(t, signedOut).Payload, &out))
	assert.Equal(t, core.FID(123), out.FID)
	assert.NotZero(t, out.At)
}
