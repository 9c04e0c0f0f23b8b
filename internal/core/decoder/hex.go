package decoder

import (
	"encoding/hex"
	"fmt"

	"firestige.xyz/ethframe/internal/core"
)

// ParseHex converts a case-insensitive hex string of whole bytes into raw bytes.
// Empty input, odd length and non-hex characters fail with core.ErrInvalidInput.
func ParseHex(s string) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty hex string", core.ErrInvalidInput)
	}
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("%w: odd hex length %d", core.ErrInvalidInput, len(s))
	}
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}
	return data, nil
}

// DecodeHex decodes an Ethernet header given as a hex string.
func DecodeHex(s string) (core.EthernetHeader, error) {
	data, err := ParseHex(s)
	if err != nil {
		return core.EthernetHeader{}, err
	}
	return DecodeEthernet(data)
}
