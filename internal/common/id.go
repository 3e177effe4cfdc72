package common

import (
	"github.com/google/uuid"
)

// NewCorrelationID generates a unique pipeline correlation ID with the "msg_" prefix
// Format: msg_<uuid>
func NewCorrelationID() string {
	return "msg_" + uuid.New().String()
}
