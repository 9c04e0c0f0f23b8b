// Package source provides raw frame sources for the decode pipeline.
package source

import (
	"firestige.xyz/ethframe/internal/core"
)

// Source yields raw frames. ReadFrame returns io.EOF when exhausted.
// Errors wrapping core.ErrInvalidInput concern a single frame; the source
// can still be read afterwards.
type Source interface {
	ReadFrame() (core.RawFrame, error)
	Close() error
}
