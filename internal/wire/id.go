package wire

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// NewID returns a fresh random 128-bit identifier rendered as 32 lowercase
// hex characters. Used wherever the client omits a request or device id.
func NewID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}
