package deployer

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/ruteri/contract-instance-registry/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLocalDeployer_Deploy(t *testing.T) {
	origin, err := interfaces.NewContractAddressFromHex("0x4242424242424242424242424242424242424242")
	require.NoError(t, err)

	d := NewLocalDeployer(origin, nil, testLogger())
	ctx := context.Background()

	first, err := d.Deploy(ctx)
	require.NoError(t, err)
	second, err := d.Deploy(ctx)
	require.NoError(t, err)

	assert.False(t, first.IsZero())
	assert.False(t, second.IsZero())
	assert.NotEqual(t, first, second)
}

func TestLocalDeployer_DeployDeterministic(t *testing.T) {
	origin, err := interfaces.NewContractAddressFromHex("0x4242424242424242424242424242424242424242")
	require.NoError(t, err)

	d := NewLocalDeployer(origin, nil, testLogger())
	ctx := context.Background()
	salt := interfaces.SaltFromLabel("local-1")

	predicted := d.DeterministicAddress(salt)

	addr, err := d.DeployDeterministic(ctx, salt)
	require.NoError(t, err)
	assert.Equal(t, predicted, addr)
	assert.False(t, addr.IsZero())

	// The salt is consumed.
	_, err = d.DeployDeterministic(ctx, salt)
	require.Error(t, err)

	other, err := d.DeployDeterministic(ctx, interfaces.SaltFromLabel("local-2"))
	require.NoError(t, err)
	assert.NotEqual(t, addr, other)
}

func TestLocalDeployer_DerivationInputs(t *testing.T) {
	originA, err := interfaces.NewContractAddressFromHex("0x4242424242424242424242424242424242424242")
	require.NoError(t, err)
	originB, err := interfaces.NewContractAddressFromHex("0x4343434343434343434343434343434343434343")
	require.NoError(t, err)

	salt := interfaces.SaltFromLabel("shared")

	// Same origin and init code derive the same address; changing either
	// input changes the result.
	sameA := NewLocalDeployer(originA, nil, testLogger())
	sameB := NewLocalDeployer(originA, nil, testLogger())
	assert.Equal(t, sameA.DeterministicAddress(salt), sameB.DeterministicAddress(salt))

	otherOrigin := NewLocalDeployer(originB, nil, testLogger())
	assert.NotEqual(t, sameA.DeterministicAddress(salt), otherOrigin.DeterministicAddress(salt))

	otherCode := NewLocalDeployer(originA, []byte{0x60, 0x01, 0x60, 0x01, 0xf3}, testLogger())
	assert.NotEqual(t, sameA.DeterministicAddress(salt), otherCode.DeterministicAddress(salt))
}
