package router

import (
	"github.com/brindlebrook/mavrelay/internal/subscription"
	"github.com/brindlebrook/mavrelay/internal/wire"
)

// event is the sum type processed one-at-a-time by Router.handle. Spec §5
// lists the inbox's event kinds: IO events, send requests,
// subscribe/unsubscribe, consumer-death notifications.
type event interface {
	name() string
}

type frameReceivedEvent struct {
	connKey string
	frame   *wire.Frame
	err     error
}

func (frameReceivedEvent) name() string { return "frame_received" }

type sendEvent struct {
	msg     wire.Message
	version wire.Version
}

func (sendEvent) name() string { return "send" }

type subscribeEvent struct {
	query   subscription.Query
	handle  subscription.ConsumerHandle
	deliver chan subscription.Delivery
}

func (subscribeEvent) name() string { return "subscribe" }

type unsubscribeEvent struct {
	handle subscription.ConsumerHandle
}

func (unsubscribeEvent) name() string { return "unsubscribe" }

type consumerDiedEvent struct {
	handle subscription.ConsumerHandle
}

func (consumerDiedEvent) name() string { return "consumer_died" }

type connectionOpenedEvent struct {
	key    string
	sender Sender
}

func (connectionOpenedEvent) name() string { return "connection_opened" }

type connectionClosedEvent struct {
	key string
}

func (connectionClosedEvent) name() string { return "connection_closed" }
