package kv

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
	"go.opencensus.io/trace"
)

var (
	// ErrCommitmentAlreadySlashed is returned by SlashAndDebit when the
	// commitment digest is already present in the slashed set.
	ErrCommitmentAlreadySlashed = errors.New("commitment has already been slashed")
	// ErrInsufficientBond is returned by SlashAndDebit when the proposer's
	// bond cannot cover the debit.
	ErrInsufficientBond = errors.New("bond is insufficient for debit")
)

var slashedValue = []byte{1}

const slashedCacheEntryCost = 32

// SlashedCommitment reports whether the commitment digest is in the
// append-only slashed set. Positive answers are cached: a digest never
// leaves the set, so a cached hit cannot go stale. Negative answers are
// always read from bolt.
func (s *Store) SlashedCommitment(ctx context.Context, commitmentHash common.Hash) (bool, error) {
	ctx, span := trace.StartSpan(ctx, "slashdDB.SlashedCommitment")
	defer span.End()
	if _, ok := s.slashedCache.Get(string(commitmentHash.Bytes())); ok {
		return true, nil
	}
	var slashed bool
	err := s.view(func(tx *bolt.Tx) error {
		slashed = tx.Bucket(slashedCommitmentsBucket).Get(commitmentHash.Bytes()) != nil
		return nil
	})
	if err != nil {
		return false, err
	}
	if slashed {
		s.slashedCache.Set(string(commitmentHash.Bytes()), struct{}{}, slashedCacheEntryCost)
	}
	return slashed, nil
}

// SlashAndDebit is the slashing commit point. Inside a single bolt
// transaction it inserts the commitment digest into the slashed set, failing
// with ErrCommitmentAlreadySlashed if present, and debits the proposer's
// bond, failing with ErrInsufficientBond if it cannot cover the amount.
// Either both effects apply or neither does; two racing calls for the same
// digest therefore produce exactly one success.
func (s *Store) SlashAndDebit(ctx context.Context, commitmentHash common.Hash, proposer common.Address, amount *uint256.Int) error {
	ctx, span := trace.StartSpan(ctx, "slashdDB.SlashAndDebit")
	defer span.End()
	err := s.update(func(tx *bolt.Tx) error {
		slashedBucket := tx.Bucket(slashedCommitmentsBucket)
		if slashedBucket.Get(commitmentHash.Bytes()) != nil {
			return ErrCommitmentAlreadySlashed
		}
		acct, err := readAccount(tx, proposer)
		if err != nil {
			return err
		}
		if acct.Bond.Lt(amount) {
			return ErrInsufficientBond
		}
		acct.Bond.Sub(acct.Bond, amount)
		if err := slashedBucket.Put(commitmentHash.Bytes(), slashedValue); err != nil {
			return errors.Wrap(err, "failed to record slashed commitment")
		}
		bucket := tx.Bucket(proposerAccountsBucket)
		if err := bucket.Put(proposer.Bytes(), encodeProposerAccount(acct)); err != nil {
			return errors.Wrap(err, "failed to debit proposer account")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.slashedCache.Set(string(commitmentHash.Bytes()), struct{}{}, slashedCacheEntryCost)
	return nil
}
