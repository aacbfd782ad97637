package query

import (
	"encoding/binary"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

const cursorSize = 8

// Cursor is an opaque, exclusive position in a paged result set. It encodes
// the id of the last record a caller received.
type Cursor []byte

var (
	EmptyCursor Cursor = Cursor([]byte{})

	ErrInvalidCursor = errors.New("invalid cursor")
)

func ToCursor(val uint64) Cursor {
	b := make([]byte, cursorSize)
	binary.BigEndian.PutUint64(b, val)
	return b
}

// ParseCursor decodes a cursor previously produced by Cursor.ToBase58
func ParseCursor(val string) (Cursor, error) {
	decoded, err := base58.Decode(val)
	if err != nil || len(decoded) != cursorSize {
		return nil, ErrInvalidCursor
	}
	return decoded, nil
}

func (c Cursor) ToUint64() uint64 {
	return binary.BigEndian.Uint64(c)
}

func (c Cursor) ToBase58() string {
	return base58.Encode(c)
}
