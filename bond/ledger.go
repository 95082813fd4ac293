// Package bond implements the collateral ledger of the slashing protocol:
// per-proposer deposits, two-phase time-locked withdrawals, and the debit
// applied by a proven violation. The ledger is the only writer of proposer
// account records.
package bond

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/holiman/uint256"
	"github.com/inclusion-protocol/slashd/async/multimutex"
	"github.com/inclusion-protocol/slashd/config/params"
	"github.com/inclusion-protocol/slashd/db"
	"github.com/inclusion-protocol/slashd/db/kv"
	"github.com/inclusion-protocol/slashd/db/types"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

var log = logrus.WithField("prefix", "bond")

var (
	// ErrBelowMinimumBond is returned when an opening deposit is smaller
	// than the protocol minimum.
	ErrBelowMinimumBond = errors.New("deposit below minimum bond amount")
	// ErrInsufficientBond is returned when a withdrawal or debit exceeds the
	// current bond.
	ErrInsufficientBond = errors.New("insufficient bond")
	// ErrNoWithdrawalPending is returned when completing a withdrawal that
	// was never initiated.
	ErrNoWithdrawalPending = errors.New("no withdrawal pending")
	// ErrWithdrawalLocked is returned when completing a withdrawal before
	// its unlock time.
	ErrWithdrawalLocked = errors.New("withdrawal is still time-locked")
	// ErrBondOverflow is returned when a deposit would overflow the 256-bit
	// bond accumulator.
	ErrBondOverflow = errors.New("bond overflow")
)

// Ledger tracks the collateral of every proposer. All mutating operations on
// the same account are mutually exclusive; operations on distinct accounts
// run concurrently.
type Ledger struct {
	db        db.Database
	clock     clock.Clock
	acctLocks *multimutex.AddressMutex
	feed      event.Feed
}

// NewLedger creates a ledger on top of the given database. The clock is
// injected so that the withdrawal time-lock is testable without wall time.
func NewLedger(database db.Database, clk clock.Clock) *Ledger {
	return &Ledger{
		db:        database,
		clock:     clk,
		acctLocks: multimutex.NewAddressMutex(),
	}
}

// SubscribeEvents returns a subscription delivering every ledger event.
func (l *Ledger) SubscribeEvents(ch chan<- *Event) event.Subscription {
	return l.feed.Subscribe(ch)
}

func (l *Ledger) now() *uint256.Int {
	return uint256.NewInt(uint64(l.clock.Now().Unix()))
}

// Deposit adds amount to the proposer's bond. An opening deposit, into an
// account whose bond is zero, must be at least MinBondAmount; top-ups of an
// already-bonded account may be of any size. The minimum is checked against
// the deposited amount, never against the resulting total.
func (l *Ledger) Deposit(ctx context.Context, proposer common.Address, amount *uint256.Int) (*types.ProposerAccount, error) {
	ctx, span := trace.StartSpan(ctx, "bond.Deposit")
	defer span.End()
	if amount == nil || amount.IsZero() {
		return nil, ErrBelowMinimumBond
	}
	l.acctLocks.Lock(proposer)
	defer l.acctLocks.Unlock(proposer)

	// Read, validate, and write in one db transaction so that no interleaved
	// deposit or debit can be lost between the read and the write.
	acct, err := l.db.UpdateProposerAccount(ctx, proposer, func(acct *types.ProposerAccount) error {
		if acct.Bond.IsZero() && amount.Lt(params.ProtoConfig().MinBondAmount) {
			return ErrBelowMinimumBond
		}
		newBond, overflow := new(uint256.Int).AddOverflow(acct.Bond, amount)
		if overflow {
			return ErrBondOverflow
		}
		acct.Bond = newBond
		return nil
	})
	if err != nil {
		return nil, err
	}
	depositsTotal.Inc()
	l.feed.Send(&Event{Type: DepositReceived, Data: &DepositReceivedData{
		Proposer: proposer,
		Amount:   new(uint256.Int).Set(amount),
		NewBond:  new(uint256.Int).Set(acct.Bond),
	}})
	log.WithFields(logrus.Fields{
		"proposer": proposer.Hex(),
		"amount":   amount.String(),
		"bond":     acct.Bond.String(),
	}).Info("Deposit received")
	return acct, nil
}

// InitiateWithdrawal records a withdrawal request for amount, unlocking
// WithdrawalDelay seconds from now. A second initiation before completion
// overwrites the first; it never accumulates. The bond is not reduced yet and
// remains fully slashable until the withdrawal completes.
func (l *Ledger) InitiateWithdrawal(ctx context.Context, proposer common.Address, amount *uint256.Int) (*types.ProposerAccount, error) {
	ctx, span := trace.StartSpan(ctx, "bond.InitiateWithdrawal")
	defer span.End()
	if amount == nil {
		return nil, ErrInsufficientBond
	}
	l.acctLocks.Lock(proposer)
	defer l.acctLocks.Unlock(proposer)

	unlockTime := new(uint256.Int).Add(l.now(), uint256.NewInt(params.ProtoConfig().WithdrawalDelay))
	acct, err := l.db.UpdateProposerAccount(ctx, proposer, func(acct *types.ProposerAccount) error {
		if amount.Gt(acct.Bond) {
			return ErrInsufficientBond
		}
		acct.PendingWithdrawalAmount = new(uint256.Int).Set(amount)
		acct.PendingWithdrawalUnlockTime = unlockTime
		return nil
	})
	if err != nil {
		return nil, err
	}
	withdrawalsInitiatedTotal.Inc()
	l.feed.Send(&Event{Type: WithdrawalInitiated, Data: &WithdrawalInitiatedData{
		Proposer:   proposer,
		Amount:     new(uint256.Int).Set(amount),
		UnlockTime: new(uint256.Int).Set(unlockTime),
	}})
	log.WithFields(logrus.Fields{
		"proposer":   proposer.Hex(),
		"amount":     amount.String(),
		"unlockTime": unlockTime.String(),
	}).Info("Withdrawal initiated")
	return acct, nil
}

// CompleteWithdrawal finalizes the pending withdrawal once its time-lock has
// elapsed. The bond may have been slashed below the pending amount in the
// meantime, in which case the withdrawal fails with ErrInsufficientBond and
// stays pending. State is mutated before the payout event is emitted, so a
// consumer failure can never leave the ledger half-applied.
func (l *Ledger) CompleteWithdrawal(ctx context.Context, proposer common.Address) (*types.ProposerAccount, error) {
	ctx, span := trace.StartSpan(ctx, "bond.CompleteWithdrawal")
	defer span.End()
	l.acctLocks.Lock(proposer)
	defer l.acctLocks.Unlock(proposer)

	now := l.now()
	var amount *uint256.Int
	acct, err := l.db.UpdateProposerAccount(ctx, proposer, func(acct *types.ProposerAccount) error {
		if !acct.HasPendingWithdrawal() {
			return ErrNoWithdrawalPending
		}
		if now.Lt(acct.PendingWithdrawalUnlockTime) {
			return ErrWithdrawalLocked
		}
		if acct.PendingWithdrawalAmount.Gt(acct.Bond) {
			return ErrInsufficientBond
		}
		amount = new(uint256.Int).Set(acct.PendingWithdrawalAmount)
		acct.Bond = new(uint256.Int).Sub(acct.Bond, amount)
		acct.PendingWithdrawalAmount = uint256.NewInt(0)
		acct.PendingWithdrawalUnlockTime = uint256.NewInt(0)
		return nil
	})
	if err != nil {
		return nil, err
	}
	withdrawalsCompletedTotal.Inc()
	l.feed.Send(&Event{Type: WithdrawalCompleted, Data: &WithdrawalCompletedData{
		Proposer:      proposer,
		Amount:        amount,
		RemainingBond: new(uint256.Int).Set(acct.Bond),
	}})
	log.WithFields(logrus.Fields{
		"proposer": proposer.Hex(),
		"amount":   amount.String(),
		"bond":     acct.Bond.String(),
	}).Info("Withdrawal completed")
	return acct, nil
}

// SlashDebit atomically records the commitment digest as slashed and debits
// amount from the proposer's bond. The debited amount is destroyed; it is
// never transferred to any party. Only the slashing engine calls this.
func (l *Ledger) SlashDebit(ctx context.Context, proposer common.Address, amount *uint256.Int, commitmentHash common.Hash) error {
	ctx, span := trace.StartSpan(ctx, "bond.SlashDebit")
	defer span.End()
	l.acctLocks.Lock(proposer)
	defer l.acctLocks.Unlock(proposer)

	if err := l.db.SlashAndDebit(ctx, commitmentHash, proposer, amount); err != nil {
		if errors.Is(err, kv.ErrInsufficientBond) {
			return ErrInsufficientBond
		}
		return err
	}
	return nil
}

// Bond returns the proposer's current bond. Pure read, no side effects.
func (l *Ledger) Bond(ctx context.Context, proposer common.Address) (*uint256.Int, error) {
	return l.db.Bond(ctx, proposer)
}

// PendingWithdrawal returns the pending withdrawal amount and unlock time of
// a proposer. An unlock time of zero means no withdrawal is pending.
func (l *Ledger) PendingWithdrawal(ctx context.Context, proposer common.Address) (*uint256.Int, *uint256.Int, error) {
	acct, err := l.db.ProposerAccount(ctx, proposer)
	if err != nil {
		return nil, nil, err
	}
	return acct.PendingWithdrawalAmount, acct.PendingWithdrawalUnlockTime, nil
}
