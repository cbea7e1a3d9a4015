package util

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateID returns a random identifier for records created without a remote backend.
func GenerateID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
