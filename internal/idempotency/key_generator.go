package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// GenerateKey hashes scope and parts into a fixed-length dedup key. Telegram
// message identifiers are only unique within a chat, so callers include the
// chat id in the parts.
func GenerateKey(scope string, parts ...any) string {
	h := sha256.New()
	io.WriteString(h, scope)
	for _, part := range parts {
		fmt.Fprintf(h, ":%v", part)
	}

	return hex.EncodeToString(h.Sum(nil))
}
