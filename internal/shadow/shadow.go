// Package shadow provisions ephemeral preview identities. A shadow user is
// a normal principal capable of holding a session, but its empty credential
// hash makes direct login impossible, and the identity resolver confines it
// to the sandbox host.
package shadow

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"themesandbox/internal/models"
)

// UserCreator is the slice of the user store the provisioner needs.
type UserCreator interface {
	CreateShadow(email, displayName string, realUserID uuid.UUID) (*models.User, error)
}

// Provisioner mints fresh shadow users. One shadow per share request — a
// long-lived shadow would let separate previews be correlated.
type Provisioner struct {
	users       UserCreator
	sandboxHost string
}

// NewProvisioner creates a Provisioner. sandboxHost is only used to build
// the synthetic email domain.
func NewProvisioner(users UserCreator, sandboxHost string) *Provisioner {
	return &Provisioner{users: users, sandboxHost: sandboxHost}
}

// Provision creates a disposable anonymous identity spawned by realUser.
// A failure here is terminal for the share flow: no token may be issued
// without a shadow to bind it to.
func (p *Provisioner) Provision(realUser *models.User) (*models.User, error) {
	if realUser == nil || realUser.Anonymous {
		return nil, fmt.Errorf("shadow provision: real authenticated actor required")
	}

	suffix := make([]byte, 6)
	if _, err := rand.Read(suffix); err != nil {
		return nil, fmt.Errorf("shadow provision: %w", err)
	}

	email := fmt.Sprintf("shadow-%s@%s", hex.EncodeToString(suffix), p.sandboxHost)
	shadowUser, err := p.users.CreateShadow(email, "Theme Preview", realUser.ID)
	if err != nil {
		return nil, fmt.Errorf("shadow provision: %w", err)
	}

	slog.Info("shadow user provisioned",
		"shadow_id", shadowUser.ID,
		"spawned_by", realUser.ID,
	)
	return shadowUser, nil
}
