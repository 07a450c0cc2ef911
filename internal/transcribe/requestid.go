package transcribe

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// NewRequestID derives an id from the first 16 hex digits of the content
// hash and the last 8 digits of the current Unix time in milliseconds.
func NewRequestID(content []byte, now time.Time) string {
	sum := sha256.Sum256(content)
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 8 {
		ms = ms[len(ms)-8:]
	}
	return hex.EncodeToString(sum[:])[:16] + "-" + ms
}
