package slasher

import (
	"context"
	"crypto/ecdsa"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/inclusion-protocol/slashd/bond"
	"github.com/inclusion-protocol/slashd/commitment"
	"github.com/inclusion-protocol/slashd/config/params"
	"github.com/inclusion-protocol/slashd/db"
	"github.com/inclusion-protocol/slashd/db/kv"
	"github.com/inclusion-protocol/slashd/verifier"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCaller = common.HexToAddress("0xcafe")

// fakeVerifier returns a canned evidence value or error on every call.
type fakeVerifier struct {
	evidence *verifier.Evidence
	err      error
}

func (f *fakeVerifier) VerifyInclusion(_ context.Context, _, _ []byte) (*verifier.Evidence, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.evidence, nil
}

type engineTest struct {
	engine   *Engine
	ledger   *bond.Ledger
	clock    *clock.TestClock
	verifier *fakeVerifier
	key      *ecdsa.PrivateKey
	proposer common.Address
}

func setupEngine(t *testing.T) *engineTest {
	params.SetupTestConfigCleanup(t)
	cfg := params.ProtoConfig().Copy()
	cfg.MinBondAmount = uint256.NewInt(100)
	cfg.SlashAmount = uint256.NewInt(100)
	cfg.WithdrawalDelay = 3600
	params.OverrideProtocolConfig(cfg)

	database, err := db.NewDB(t.TempDir(), &kv.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, database.Close())
	})
	clk := clock.NewTestClock(time.Unix(1700000000, 0))
	ledger := bond.NewLedger(database, clk)
	fv := &fakeVerifier{}
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &engineTest{
		engine:   NewEngine(ledger, database, fv, clk),
		ledger:   ledger,
		clock:    clk,
		verifier: fv,
		key:      key,
		proposer: crypto.PubkeyToAddress(key.PublicKey),
	}
}

func (et *engineTest) fund(t *testing.T, amount uint64) {
	_, err := et.ledger.Deposit(context.Background(), et.proposer, uint256.NewInt(amount))
	require.NoError(t, err)
}

func (et *engineTest) commitment(t *testing.T) (*commitment.InclusionCommitment, []byte) {
	c := &commitment.InclusionCommitment{
		BlockNumber:      8000000,
		TransactionHash:  common.HexToHash("0x11"),
		TransactionIndex: 3,
		Deadline:         uint256.NewInt(uint64(et.clock.Now().Unix()) + 600),
	}
	sig, err := commitment.SignCommitment(c, et.key)
	require.NoError(t, err)
	return c, sig
}

// evidenceFor produces evidence matching the commitment exactly, which callers
// then perturb into a violation.
func evidenceFor(c *commitment.InclusionCommitment) *verifier.Evidence {
	return &verifier.Evidence{
		BlockHash:           common.HexToHash("0x22"),
		BlockNumber:         c.BlockNumber,
		TransactionHash:     c.TransactionHash,
		TransactionIndex:    c.TransactionIndex,
		IsIncluded:          true,
		VerifiedAgainstRoot: common.HexToHash("0x33"),
	}
}

func TestSlash_NonInclusion(t *testing.T) {
	et := setupEngine(t)
	et.fund(t, 250)
	c, sig := et.commitment(t)
	ev := evidenceFor(c)
	ev.IsIncluded = false
	et.verifier.evidence = ev

	ch := make(chan *SlashedEvent, 1)
	sub := et.engine.SubscribeSlashEvents(ch)
	defer sub.Unsubscribe()

	hash, err := et.engine.Slash(context.Background(), c, et.proposer, sig, nil, nil, testCaller)
	require.NoError(t, err)
	assert.Equal(t, commitment.HashCommitment(c), hash)

	bondLeft, err := et.ledger.Bond(context.Background(), et.proposer)
	require.NoError(t, err)
	assert.Equal(t, uint64(150), bondLeft.Uint64())

	slashed, err := et.engine.IsSlashed(context.Background(), hash)
	require.NoError(t, err)
	assert.True(t, slashed)

	select {
	case ev := <-ch:
		assert.Equal(t, et.proposer, ev.Proposer)
		assert.Equal(t, hash, ev.CommitmentHash)
		assert.Equal(t, uint64(100), ev.Amount.Uint64())
		assert.Equal(t, testCaller, ev.Caller)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for slash event")
	}
}

func TestSlash_DifferentTransactionAtIndex(t *testing.T) {
	et := setupEngine(t)
	et.fund(t, 250)
	c, sig := et.commitment(t)
	ev := evidenceFor(c)
	ev.TransactionHash = common.HexToHash("0xdead")
	et.verifier.evidence = ev

	_, err := et.engine.Slash(context.Background(), c, et.proposer, sig, nil, nil, testCaller)
	require.NoError(t, err)
}

func TestSlash_WrongIndex(t *testing.T) {
	et := setupEngine(t)
	et.fund(t, 250)
	c, sig := et.commitment(t)
	ev := evidenceFor(c)
	ev.TransactionIndex = c.TransactionIndex + 1
	et.verifier.evidence = ev

	_, err := et.engine.Slash(context.Background(), c, et.proposer, sig, nil, nil, testCaller)
	require.NoError(t, err)
}

func TestSlash_PromiseKept(t *testing.T) {
	et := setupEngine(t)
	et.fund(t, 250)
	c, sig := et.commitment(t)
	et.verifier.evidence = evidenceFor(c)

	_, err := et.engine.Slash(context.Background(), c, et.proposer, sig, nil, nil, testCaller)
	require.ErrorIs(t, err, ErrTransactionWasIncluded)

	bondLeft, err := et.ledger.Bond(context.Background(), et.proposer)
	require.NoError(t, err)
	assert.Equal(t, uint64(250), bondLeft.Uint64())
}

func TestSlash_Expired(t *testing.T) {
	et := setupEngine(t)
	et.fund(t, 250)
	c, sig := et.commitment(t)
	ev := evidenceFor(c)
	ev.IsIncluded = false
	et.verifier.evidence = ev

	et.clock.SetTime(time.Unix(int64(c.Deadline.Uint64())+1, 0))
	_, err := et.engine.Slash(context.Background(), c, et.proposer, sig, nil, nil, testCaller)
	require.ErrorIs(t, err, ErrCommitmentExpired)
}

func TestSlash_DeadlineBoundary(t *testing.T) {
	et := setupEngine(t)
	et.fund(t, 250)
	c, sig := et.commitment(t)
	ev := evidenceFor(c)
	ev.IsIncluded = false
	et.verifier.evidence = ev

	// Slashing at exactly the deadline is still in time.
	et.clock.SetTime(time.Unix(int64(c.Deadline.Uint64()), 0))
	_, err := et.engine.Slash(context.Background(), c, et.proposer, sig, nil, nil, testCaller)
	require.NoError(t, err)
}

func TestSlash_InvalidSignature(t *testing.T) {
	et := setupEngine(t)
	et.fund(t, 250)
	c, sig := et.commitment(t)
	ev := evidenceFor(c)
	ev.IsIncluded = false
	et.verifier.evidence = ev

	tampered := make([]byte, len(sig))
	copy(tampered, sig)
	tampered[10] ^= 0xff
	_, err := et.engine.Slash(context.Background(), c, et.proposer, tampered, nil, nil, testCaller)
	require.ErrorIs(t, err, ErrInvalidSignature)

	// A valid signature attributed to the wrong proposer is also rejected.
	_, err = et.engine.Slash(context.Background(), c, testCaller, sig, nil, nil, testCaller)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestSlash_InsufficientBond(t *testing.T) {
	et := setupEngine(t)
	c, sig := et.commitment(t)
	ev := evidenceFor(c)
	ev.IsIncluded = false
	et.verifier.evidence = ev

	_, err := et.engine.Slash(context.Background(), c, et.proposer, sig, nil, nil, testCaller)
	require.ErrorIs(t, err, ErrInsufficientProposerBond)
}

func TestSlash_BlockNumberMismatch(t *testing.T) {
	et := setupEngine(t)
	et.fund(t, 250)
	c, sig := et.commitment(t)
	ev := evidenceFor(c)
	ev.BlockNumber = c.BlockNumber + 1
	ev.IsIncluded = false
	et.verifier.evidence = ev

	_, err := et.engine.Slash(context.Background(), c, et.proposer, sig, nil, nil, testCaller)
	require.ErrorIs(t, err, ErrBlockNumberMismatch)
}

func TestSlash_AlreadySlashed(t *testing.T) {
	et := setupEngine(t)
	et.fund(t, 250)
	c, sig := et.commitment(t)
	ev := evidenceFor(c)
	ev.IsIncluded = false
	et.verifier.evidence = ev

	_, err := et.engine.Slash(context.Background(), c, et.proposer, sig, nil, nil, testCaller)
	require.NoError(t, err)
	_, err = et.engine.Slash(context.Background(), c, et.proposer, sig, nil, nil, testCaller)
	require.ErrorIs(t, err, ErrAlreadySlashed)

	// The bond is debited exactly once.
	bondLeft, err := et.ledger.Bond(context.Background(), et.proposer)
	require.NoError(t, err)
	assert.Equal(t, uint64(150), bondLeft.Uint64())
}

func TestSlash_VerifierError(t *testing.T) {
	et := setupEngine(t)
	et.fund(t, 250)
	c, sig := et.commitment(t)
	et.verifier.err = verifier.ErrVerificationFailed

	_, err := et.engine.Slash(context.Background(), c, et.proposer, sig, nil, nil, testCaller)
	require.ErrorIs(t, err, verifier.ErrVerificationFailed)

	// A failed attempt leaves no state behind.
	bondLeft, err := et.ledger.Bond(context.Background(), et.proposer)
	require.NoError(t, err)
	assert.Equal(t, uint64(250), bondLeft.Uint64())
	slashed, err := et.engine.IsSlashed(context.Background(), commitment.HashCommitment(c))
	require.NoError(t, err)
	assert.False(t, slashed)
}

func TestSlash_ImmediatelyAfterDeposit(t *testing.T) {
	et := setupEngine(t)
	ctx := context.Background()

	// A freshly deposited bond must be visible to the next slash attempt's
	// bond pre-check, every time.
	for i := 0; i < 10; i++ {
		et.fund(t, 100)
		c := &commitment.InclusionCommitment{
			BlockNumber:      8000000 + uint64(i),
			TransactionHash:  common.HexToHash("0x11"),
			TransactionIndex: 3,
			Deadline:         uint256.NewInt(uint64(et.clock.Now().Unix()) + 600),
		}
		sig, err := commitment.SignCommitment(c, et.key)
		require.NoError(t, err)
		ev := evidenceFor(c)
		ev.IsIncluded = false
		et.verifier.evidence = ev

		_, err = et.engine.Slash(ctx, c, et.proposer, sig, nil, nil, testCaller)
		require.NoError(t, err, "deposit %d was not visible to the bond pre-check", i)
	}

	bondLeft, err := et.ledger.Bond(ctx, et.proposer)
	require.NoError(t, err)
	assert.True(t, bondLeft.IsZero())
}

func TestSlash_ConcurrentAttempts(t *testing.T) {
	et := setupEngine(t)
	et.fund(t, 1000)
	c, sig := et.commitment(t)
	ev := evidenceFor(c)
	ev.IsIncluded = false
	et.verifier.evidence = ev

	const attempts = 16
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = et.engine.Slash(context.Background(), c, et.proposer, sig, nil, nil, testCaller)
		}(i)
	}
	wg.Wait()

	var successes int
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		require.ErrorIs(t, err, ErrAlreadySlashed)
	}
	require.Equal(t, 1, successes, "exactly one racing attempt must win")

	bondLeft, err := et.ledger.Bond(context.Background(), et.proposer)
	require.NoError(t, err)
	assert.Equal(t, uint64(900), bondLeft.Uint64())
}
