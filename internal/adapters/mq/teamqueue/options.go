package teamqueue

import "github.com/brianes/pitchscore/pkg/logger"

// Option applies a configuration option to the Runner.
type Option func(*Runner)

// WithBuffer bounds each team's mailbox.
func WithBuffer(size int) Option {
	return func(r *Runner) {
		if size > 0 {
			r.buffer = size
		}
	}
}

// WithLogger sets a custom logger for the runner.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}
