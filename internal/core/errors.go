// Package core defines sentinel errors.
package core

import "errors"

var (
	// Frame decoding errors
	ErrTruncatedFrame = errors.New("ethframe: truncated frame")
	ErrInvalidInput   = errors.New("ethframe: invalid input")

	// Source errors
	ErrUnsupportedLinkType = errors.New("ethframe: unsupported link type")

	// Configuration errors
	ErrConfigInvalid = errors.New("ethframe: invalid configuration")
)
