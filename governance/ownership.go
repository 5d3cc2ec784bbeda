// Package governance implements access control for the instance registry.
//
// The registry's administrative operations (metadata updates, instance
// destruction) are gated on a single owner address. OwnerAccessControl is the
// canonical implementation: it authorizes exactly one configured address and
// nobody when no owner is configured.
package governance

import (
	"github.com/ruteri/contract-instance-registry/interfaces"
)

// OwnerAccessControl authorizes a single fixed owner address.
type OwnerAccessControl struct {
	owner interfaces.ContractAddress
}

// NewOwnerAccessControl creates an access controller for the given owner.
// Passing the zero address yields a controller that rejects every caller,
// which locks down all owner-gated operations.
func NewOwnerAccessControl(owner interfaces.ContractAddress) *OwnerAccessControl {
	return &OwnerAccessControl{owner: owner}
}

// IsOwner reports whether caller is the configured owner. The zero address
// never authorizes, even against an unconfigured controller.
func (a *OwnerAccessControl) IsOwner(caller interfaces.ContractAddress) bool {
	if a.owner.IsZero() {
		return false
	}
	return a.owner.Equal(caller)
}

// Owner returns the configured owner address.
func (a *OwnerAccessControl) Owner() interfaces.ContractAddress {
	return a.owner
}
