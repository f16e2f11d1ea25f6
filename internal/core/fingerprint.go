package core

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// Fingerprint derives the cache key for a request. Only the fields that
// identify the logical email participate; priority and timestamp are
// excluded so a retry of the same message hits the cache.
func Fingerprint(req *ProcessingRequest) string {
	h := sha256.New()
	for _, field := range []string{req.Sender, req.Recipient, req.Subject, req.Body} {
		io.WriteString(h, field)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
