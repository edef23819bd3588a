package common

import (
	"crypto/sha256"

	"github.com/denisbrodbeck/machineid"
	"github.com/google/uuid"
)

// ClientIdentifier returns a UUID that identifies this machine to the
// remote API. The machine ID is hashed with the application name so the raw
// ID never leaves the host.
func ClientIdentifier(appName string) uuid.UUID {
	id, err := machineid.ProtectedID(appName)
	if err != nil {
		// Fallback to a random ephemeral UUID if machine ID cannot be obtained
		return uuid.New()
	}

	hash := sha256.Sum256([]byte(id))
	return uuid.UUID(hash[:16])
}
