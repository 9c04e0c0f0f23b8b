// Package reporter defines sinks for decoded frames.
package reporter

import (
	"context"

	"firestige.xyz/ethframe/internal/core"
)

// Reporter sends decoded frames to an output.
type Reporter interface {
	Name() string
	Report(ctx context.Context, frame core.DecodedFrame) error
	Close(ctx context.Context) error
}
