package governance

import (
	"testing"

	"github.com/ruteri/contract-instance-registry/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnerAccessControl(t *testing.T) {
	owner, err := interfaces.NewContractAddressFromHex("0x1111111111111111111111111111111111111111")
	require.NoError(t, err)
	other, err := interfaces.NewContractAddressFromHex("0x2222222222222222222222222222222222222222")
	require.NoError(t, err)

	ac := NewOwnerAccessControl(owner)

	assert.Equal(t, owner, ac.Owner())
	assert.True(t, ac.IsOwner(owner))
	assert.False(t, ac.IsOwner(other))
	assert.False(t, ac.IsOwner(interfaces.ContractAddress{}))
}

func TestOwnerAccessControl_NoOwnerConfigured(t *testing.T) {
	ac := NewOwnerAccessControl(interfaces.ContractAddress{})

	assert.True(t, ac.Owner().IsZero())
	// An unconfigured controller authorizes nobody, not even zero callers.
	assert.False(t, ac.IsOwner(interfaces.ContractAddress{}))

	some, err := interfaces.NewContractAddressFromHex("0x3333333333333333333333333333333333333333")
	require.NoError(t, err)
	assert.False(t, ac.IsOwner(some))
}
