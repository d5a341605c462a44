package teamqueue

import "errors"

// Sentinel kinds for runner errors.
var (
	ErrClosed = errors.New("team queue closed")
)
