package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mailmind/ai-gateway/internal/core"
)

func TestFingerprintIgnoresPriorityAndTimestamp(t *testing.T) {
	first := validRequest()
	first.Priority = core.PriorityLow
	first.Timestamp = time.Now()

	second := validRequest()
	second.Priority = core.PriorityUrgent
	second.Timestamp = time.Now().Add(time.Hour)

	assert.Equal(t, core.Fingerprint(first), core.Fingerprint(second))
}

func TestFingerprintDistinguishesContent(t *testing.T) {
	base := validRequest()

	changedBody := validRequest()
	changedBody.Body = "test!"
	assert.NotEqual(t, core.Fingerprint(base), core.Fingerprint(changedBody))

	changedSubject := validRequest()
	changedSubject.Subject = "Hi "
	assert.NotEqual(t, core.Fingerprint(base), core.Fingerprint(changedSubject))
}

func TestFingerprintFieldBoundaries(t *testing.T) {
	// Field contents must not bleed into each other
	a := &core.ProcessingRequest{Sender: "ab", Recipient: "c", Subject: "s", Body: "b"}
	b := &core.ProcessingRequest{Sender: "a", Recipient: "bc", Subject: "s", Body: "b"}

	assert.NotEqual(t, core.Fingerprint(a), core.Fingerprint(b))
}
