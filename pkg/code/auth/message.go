package auth

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const messageDomain = "presale-server:v1"

// Message is the part of a request a signer commits to. Binding the method,
// path and timestamp alongside the body prevents a signature from being
// reused for a different operation.
type Message struct {
	Method    string
	Path      string
	Timestamp time.Time
	Body      []byte
}

// Bytes is the canonical encoding that signatures are computed over:
//
//	presale-server:v1\n<METHOD>\n<path>\n<unix seconds>\n<hex sha256 of body>
func (m *Message) Bytes() []byte {
	digest := sha256.Sum256(m.Body)

	var buffer bytes.Buffer
	buffer.WriteString(messageDomain)
	buffer.WriteByte('\n')
	buffer.WriteString(strings.ToUpper(m.Method))
	buffer.WriteByte('\n')
	buffer.WriteString(m.Path)
	buffer.WriteByte('\n')
	buffer.WriteString(strconv.FormatInt(m.Timestamp.Unix(), 10))
	buffer.WriteByte('\n')
	buffer.WriteString(hex.EncodeToString(digest[:]))
	return buffer.Bytes()
}

func (m *Message) Validate() error {
	if m == nil {
		return errors.New("message is nil")
	}

	if len(m.Method) == 0 {
		return errors.New("method is required")
	}

	if !strings.HasPrefix(m.Path, "/") {
		return errors.New("path must be absolute")
	}

	if m.Timestamp.IsZero() {
		return errors.New("timestamp is required")
	}

	return nil
}
