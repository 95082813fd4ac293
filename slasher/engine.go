// Package slasher implements the slashing state machine: it validates
// commitment freshness, authenticates the proposer, consults the external
// inclusion-proof verifier, and converts proven violations into an
// irreversible bond debit, exactly once per commitment. Slashing is
// permissionless; the signed commitment plus verified evidence is the
// authorization.
package slasher

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/holiman/uint256"
	"github.com/inclusion-protocol/slashd/bond"
	"github.com/inclusion-protocol/slashd/commitment"
	"github.com/inclusion-protocol/slashd/config/params"
	"github.com/inclusion-protocol/slashd/db"
	"github.com/inclusion-protocol/slashd/db/kv"
	"github.com/inclusion-protocol/slashd/verifier"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

var log = logrus.WithField("prefix", "slasher")

// SlashedEvent is emitted on the engine feed after every successful slash.
type SlashedEvent struct {
	Proposer       common.Address
	CommitmentHash common.Hash
	Amount         *uint256.Int
	Caller         common.Address
}

// Engine orchestrates slash attempts. It owns the slashed-commitment record;
// the bond ledger owns the accounts it debits.
type Engine struct {
	ledger   *bond.Ledger
	db       db.ReadOnlyDatabase
	verifier verifier.Verifier
	clock    clock.Clock
	feed     event.Feed
}

// NewEngine assembles a slashing engine from its collaborators.
func NewEngine(ledger *bond.Ledger, database db.ReadOnlyDatabase, v verifier.Verifier, clk clock.Clock) *Engine {
	return &Engine{
		ledger:   ledger,
		db:       database,
		verifier: v,
		clock:    clk,
	}
}

// SubscribeSlashEvents returns a subscription delivering every slash event.
func (e *Engine) SubscribeSlashEvents(ch chan<- *SlashedEvent) event.Subscription {
	return e.feed.Subscribe(ch)
}

// IsSlashed reports whether the commitment digest has already been slashed.
func (e *Engine) IsSlashed(ctx context.Context, commitmentHash common.Hash) (bool, error) {
	return e.db.SlashedCommitment(ctx, commitmentHash)
}

// Slash attempts to punish a broken inclusion commitment. Any caller may
// invoke it. Checks run in a strict order, each failing with its own error:
// expiry, replay, signature, bond pre-check, proof verification, block-number
// match, and the kept-promise test. Only then are the slash record and the
// debit committed, atomically; the bond and replay checks are revalidated at
// that commit point since proof verification takes wall-clock time. No state
// is written before the commit point, so an abandoned attempt leaves nothing
// behind.
//
// The evidence model is deliberately permissive: the promise counts as kept
// only if the verifier attests the committed transaction at the committed
// index with isIncluded true. Every other verified outcome, including a proof
// of non-inclusion, is a violation.
func (e *Engine) Slash(
	ctx context.Context,
	c *commitment.InclusionCommitment,
	proposer common.Address,
	sig []byte,
	publicValues []byte,
	proof []byte,
	caller common.Address,
) (common.Hash, error) {
	ctx, span := trace.StartSpan(ctx, "slasher.Slash")
	defer span.End()

	commitmentHash := commitment.HashCommitment(c)
	now := uint256.NewInt(uint64(e.clock.Now().Unix()))
	if now.Gt(c.DeadlineOrZero()) {
		return commitmentHash, e.failed(ErrCommitmentExpired)
	}
	alreadySlashed, err := e.db.SlashedCommitment(ctx, commitmentHash)
	if err != nil {
		return commitmentHash, err
	}
	if alreadySlashed {
		return commitmentHash, e.failed(ErrAlreadySlashed)
	}
	if !commitment.Authenticate(c, proposer, sig) {
		return commitmentHash, e.failed(ErrInvalidSignature)
	}
	slashAmount := params.ProtoConfig().SlashAmount
	currentBond, err := e.db.Bond(ctx, proposer)
	if err != nil {
		return commitmentHash, err
	}
	if currentBond.Lt(slashAmount) {
		return commitmentHash, e.failed(ErrInsufficientProposerBond)
	}

	// Proof verification may be slow or remote. No account lock is held
	// here; any verification failure propagates unchanged and is fatal to
	// this attempt.
	evidence, err := e.verifier.VerifyInclusion(ctx, publicValues, proof)
	if err != nil {
		slashAttemptsFailed.WithLabelValues("verification").Inc()
		return commitmentHash, err
	}

	if evidence.BlockNumber != c.BlockNumber {
		return commitmentHash, e.failed(ErrBlockNumberMismatch)
	}
	promiseKept := evidence.IsIncluded &&
		evidence.TransactionHash == c.TransactionHash &&
		evidence.TransactionIndex == c.TransactionIndex
	if promiseKept {
		return commitmentHash, e.failed(ErrTransactionWasIncluded)
	}

	// Commit point: record and debit in one transaction, revalidating the
	// replay and bond checks under the account lock.
	if err := e.ledger.SlashDebit(ctx, proposer, slashAmount, commitmentHash); err != nil {
		if errors.Is(err, kv.ErrCommitmentAlreadySlashed) {
			return commitmentHash, e.failed(ErrAlreadySlashed)
		}
		if errors.Is(err, bond.ErrInsufficientBond) {
			return commitmentHash, e.failed(ErrInsufficientProposerBond)
		}
		return commitmentHash, err
	}

	slashesTotal.Inc()
	e.feed.Send(&SlashedEvent{
		Proposer:       proposer,
		CommitmentHash: commitmentHash,
		Amount:         new(uint256.Int).Set(slashAmount),
		Caller:         caller,
	})
	log.WithFields(logrus.Fields{
		"proposer":       proposer.Hex(),
		"commitmentHash": commitmentHash.Hex(),
		"amount":         slashAmount.String(),
		"caller":         caller.Hex(),
	}).Info("Commitment slashed")
	return commitmentHash, nil
}

// failed counts a failed attempt under its reason label and returns the error.
func (e *Engine) failed(err error) error {
	slashAttemptsFailed.WithLabelValues(failureReason(err)).Inc()
	return err
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrCommitmentExpired):
		return "expired"
	case errors.Is(err, ErrAlreadySlashed):
		return "already_slashed"
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrInsufficientProposerBond):
		return "insufficient_bond"
	case errors.Is(err, ErrBlockNumberMismatch):
		return "block_mismatch"
	case errors.Is(err, ErrTransactionWasIncluded):
		return "promise_kept"
	default:
		return "other"
	}
}
