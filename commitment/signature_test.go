package commitment

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndAuthenticate(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	proposer := crypto.PubkeyToAddress(key.PublicKey)
	c := testCommitment()

	sig, err := SignCommitment(c, key)
	require.NoError(t, err)
	require.Equal(t, SignatureLength, len(sig))

	recovered, err := RecoverProposer(c, sig)
	require.NoError(t, err)
	assert.Equal(t, proposer, recovered)
	assert.True(t, Authenticate(c, proposer, sig))
}

func TestAuthenticate_LegacyRecoveryID(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	proposer := crypto.PubkeyToAddress(key.PublicKey)
	c := testCommitment()

	sig, err := SignCommitment(c, key)
	require.NoError(t, err)
	legacy := make([]byte, len(sig))
	copy(legacy, sig)
	legacy[64] += 27
	assert.True(t, Authenticate(c, proposer, legacy))
}

func TestAuthenticate_WrongSigner(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	otherKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	c := testCommitment()

	sig, err := SignCommitment(c, otherKey)
	require.NoError(t, err)
	assert.False(t, Authenticate(c, crypto.PubkeyToAddress(key.PublicKey), sig))
}

func TestAuthenticate_SignedDifferentCommitment(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	proposer := crypto.PubkeyToAddress(key.PublicKey)

	other := testCommitment()
	other.TransactionIndex = 6
	sig, err := SignCommitment(other, key)
	require.NoError(t, err)
	assert.False(t, Authenticate(testCommitment(), proposer, sig))
}

func TestAuthenticate_BitFlips(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	proposer := crypto.PubkeyToAddress(key.PublicKey)
	c := testCommitment()

	sig, err := SignCommitment(c, key)
	require.NoError(t, err)
	for i := 0; i < len(sig); i++ {
		for bit := uint(0); bit < 8; bit++ {
			flipped := make([]byte, len(sig))
			copy(flipped, sig)
			flipped[i] ^= 1 << bit
			assert.False(t, Authenticate(c, proposer, flipped),
				"bit flip at byte %d bit %d must not authenticate", i, bit)
		}
	}
}

func TestAuthenticate_Malformed(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	proposer := crypto.PubkeyToAddress(key.PublicKey)
	c := testCommitment()

	assert.False(t, Authenticate(c, proposer, nil))
	assert.False(t, Authenticate(c, proposer, []byte{}))
	assert.False(t, Authenticate(c, proposer, make([]byte, 64)))
	assert.False(t, Authenticate(c, proposer, make([]byte, 66)))

	sig, err := SignCommitment(c, key)
	require.NoError(t, err)
	badRecovery := make([]byte, len(sig))
	copy(badRecovery, sig)
	badRecovery[64] = 5
	assert.False(t, Authenticate(c, proposer, badRecovery))
}
