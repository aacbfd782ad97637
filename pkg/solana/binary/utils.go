// Package binary contains little-endian field codecs for fixed-width program
// account layouts. Every helper writes to (or reads from) the start of the
// provided slice and advances offset by the width of the field.
package binary

import (
	"crypto/ed25519"
	"encoding/binary"
)

func PutKey32(dst []byte, src []byte, offset *int) {
	copy(dst[:ed25519.PublicKeySize], src)
	*offset += ed25519.PublicKeySize
}

func PutUint64(dst []byte, v uint64, offset *int) {
	binary.LittleEndian.PutUint64(dst, v)
	*offset += 8
}

func PutInt64(dst []byte, v int64, offset *int) {
	PutUint64(dst, uint64(v), offset)
}

func PutUint8(dst []byte, v uint8, offset *int) {
	dst[0] = v
	*offset += 1
}

func PutBool(dst []byte, v bool, offset *int) {
	var b uint8
	if v {
		b = 1
	}
	PutUint8(dst, b, offset)
}

func GetKey32(src []byte, dst *ed25519.PublicKey, offset *int) {
	*dst = make([]byte, ed25519.PublicKeySize)
	copy(*dst, src)
	*offset += ed25519.PublicKeySize
}

func GetUint64(src []byte, dst *uint64, offset *int) {
	*dst = binary.LittleEndian.Uint64(src)
	*offset += 8
}

func GetInt64(src []byte, dst *int64, offset *int) {
	var v uint64
	GetUint64(src, &v, offset)
	*dst = int64(v)
}

func GetUint8(src []byte, dst *uint8, offset *int) {
	*dst = src[0]
	*offset += 1
}

// GetBool decodes a single byte boolean. Any value other than 0 or 1 is
// reported as invalid.
func GetBool(src []byte, dst *bool, offset *int) bool {
	var v uint8
	GetUint8(src, &v, offset)
	switch v {
	case 0:
		*dst = false
	case 1:
		*dst = true
	default:
		return false
	}
	return true
}
