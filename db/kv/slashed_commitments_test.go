package kv

import (
	"context"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/inclusion-protocol/slashd/db/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SlashedCommitment_Empty(t *testing.T) {
	db := setupDB(t)
	slashed, err := db.SlashedCommitment(context.Background(), common.HexToHash("0x01"))
	require.NoError(t, err)
	assert.False(t, slashed)
}

func TestStore_SlashAndDebit(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	proposer := common.HexToAddress("0xaa")
	digest := common.HexToHash("0xbb")

	acct := types.NewProposerAccount()
	acct.Bond = uint256.NewInt(300)
	require.NoError(t, db.SaveProposerAccount(ctx, proposer, acct))

	require.NoError(t, db.SlashAndDebit(ctx, digest, proposer, uint256.NewInt(100)))

	slashed, err := db.SlashedCommitment(ctx, digest)
	require.NoError(t, err)
	assert.True(t, slashed)

	got, err := db.ProposerAccount(ctx, proposer)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), got.Bond.Uint64())
}

func TestStore_SlashedCommitment_StableAcrossReads(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	proposer := common.HexToAddress("0xaa")
	digest := common.HexToHash("0xbb")
	other := common.HexToHash("0xcc")

	acct := types.NewProposerAccount()
	acct.Bond = uint256.NewInt(300)
	require.NoError(t, db.SaveProposerAccount(ctx, proposer, acct))
	require.NoError(t, db.SlashAndDebit(ctx, digest, proposer, uint256.NewInt(100)))

	// Once slashed, every subsequent read answers true; a digest never seen
	// answers false no matter how often it is asked.
	for i := 0; i < 5; i++ {
		slashed, err := db.SlashedCommitment(ctx, digest)
		require.NoError(t, err)
		assert.True(t, slashed)

		slashed, err = db.SlashedCommitment(ctx, other)
		require.NoError(t, err)
		assert.False(t, slashed)
	}
}

func TestStore_SlashAndDebit_AlreadySlashed(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	proposer := common.HexToAddress("0xaa")
	digest := common.HexToHash("0xbb")

	acct := types.NewProposerAccount()
	acct.Bond = uint256.NewInt(300)
	require.NoError(t, db.SaveProposerAccount(ctx, proposer, acct))

	require.NoError(t, db.SlashAndDebit(ctx, digest, proposer, uint256.NewInt(100)))
	err := db.SlashAndDebit(ctx, digest, proposer, uint256.NewInt(100))
	require.ErrorIs(t, err, ErrCommitmentAlreadySlashed)

	// The failed attempt must not debit the bond a second time.
	got, err := db.ProposerAccount(ctx, proposer)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), got.Bond.Uint64())
}

func TestStore_SlashAndDebit_InsufficientBond(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	proposer := common.HexToAddress("0xaa")
	digest := common.HexToHash("0xbb")

	acct := types.NewProposerAccount()
	acct.Bond = uint256.NewInt(99)
	require.NoError(t, db.SaveProposerAccount(ctx, proposer, acct))

	err := db.SlashAndDebit(ctx, digest, proposer, uint256.NewInt(100))
	require.ErrorIs(t, err, ErrInsufficientBond)

	// Neither effect of the transaction may apply.
	slashed, err := db.SlashedCommitment(ctx, digest)
	require.NoError(t, err)
	assert.False(t, slashed)
	got, err := db.ProposerAccount(ctx, proposer)
	require.NoError(t, err)
	assert.Equal(t, uint64(99), got.Bond.Uint64())
}

func TestStore_SlashAndDebit_ExactBond(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	proposer := common.HexToAddress("0xaa")
	digest := common.HexToHash("0xbb")

	acct := types.NewProposerAccount()
	acct.Bond = uint256.NewInt(100)
	require.NoError(t, db.SaveProposerAccount(ctx, proposer, acct))

	require.NoError(t, db.SlashAndDebit(ctx, digest, proposer, uint256.NewInt(100)))
	got, err := db.ProposerAccount(ctx, proposer)
	require.NoError(t, err)
	assert.True(t, got.Bond.IsZero())
}

func TestStore_SlashAndDebit_ConcurrentSameDigest(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	proposer := common.HexToAddress("0xaa")
	digest := common.HexToHash("0xbb")

	acct := types.NewProposerAccount()
	acct.Bond = uint256.NewInt(1000)
	require.NoError(t, db.SaveProposerAccount(ctx, proposer, acct))

	const attempts = 16
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = db.SlashAndDebit(ctx, digest, proposer, uint256.NewInt(100))
		}(i)
	}
	wg.Wait()

	var successes int
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		require.True(t, errors.Is(err, ErrCommitmentAlreadySlashed), "unexpected error: %v", err)
	}
	require.Equal(t, 1, successes, "exactly one racing slash must win")

	got, err := db.ProposerAccount(ctx, proposer)
	require.NoError(t, err)
	assert.Equal(t, uint64(900), got.Bond.Uint64(), "bond must be debited exactly once")
}
