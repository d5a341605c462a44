package ws

import "github.com/brianes/pitchscore/pkg/logger"

const defaultSendBuffer = 64

// Option configures the hub.
type Option func(*Hub)

// WithSendBuffer sets the per-connection outbound buffer size. A client
// that falls this many events behind is dropped.
func WithSendBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// WithLogger overrides the hub's logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}
