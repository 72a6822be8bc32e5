// Package session provides the one-way text channel into a named interactive
// interpreter session.
//
// A Channel has no return path and no acknowledgment: correlation with
// results happens out-of-band via the output sentinel file. The session key
// "none" addresses no persistent session; requests for it are built for an
// isolated one-shot scope but still flow through a channel.
package session

import "context"

// NoSession is the session key meaning "run in isolation".
const NoSession = "none"

// Channel injects raw text into an interactive session. Fire-and-forget.
type Channel interface {
	// Key identifies the session this channel addresses.
	Key() string

	// Send pastes text into the session. There is no response channel.
	Send(ctx context.Context, text string) error
}

// ChannelFunc adapts a function to the Channel interface.
type ChannelFunc struct {
	SessionKey string
	SendFunc   func(ctx context.Context, text string) error
}

func (c ChannelFunc) Key() string { return c.SessionKey }

func (c ChannelFunc) Send(ctx context.Context, text string) error {
	return c.SendFunc(ctx, text)
}
