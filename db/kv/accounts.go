package kv

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/inclusion-protocol/slashd/db/types"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
	"go.opencensus.io/trace"
)

// Account records encode as three 32-byte big-endian words.
const (
	accountBondOffset    = 0
	accountPendingOffset = 32
	accountUnlockOffset  = 64
	accountRecordLength  = 96
)

func encodeProposerAccount(acct *types.ProposerAccount) []byte {
	enc := make([]byte, accountRecordLength)
	bond := acct.Bond.Bytes32()
	pending := acct.PendingWithdrawalAmount.Bytes32()
	unlock := acct.PendingWithdrawalUnlockTime.Bytes32()
	copy(enc[accountBondOffset:], bond[:])
	copy(enc[accountPendingOffset:], pending[:])
	copy(enc[accountUnlockOffset:], unlock[:])
	return enc
}

func decodeProposerAccount(enc []byte) (*types.ProposerAccount, error) {
	if len(enc) != accountRecordLength {
		return nil, errors.Errorf("corrupt account record: want %d bytes, got %d", accountRecordLength, len(enc))
	}
	acct := types.NewProposerAccount()
	acct.Bond.SetBytes(enc[accountBondOffset:accountPendingOffset])
	acct.PendingWithdrawalAmount.SetBytes(enc[accountPendingOffset:accountUnlockOffset])
	acct.PendingWithdrawalUnlockTime.SetBytes(enc[accountUnlockOffset:])
	return acct, nil
}

// ProposerAccount returns the stored account of a proposer, or a
// zero-initialized record if the proposer has never deposited. Account
// records are mutable, so reads always go to bolt; no cache sits in front
// of them.
func (s *Store) ProposerAccount(ctx context.Context, proposer common.Address) (*types.ProposerAccount, error) {
	ctx, span := trace.StartSpan(ctx, "slashdDB.ProposerAccount")
	defer span.End()
	var acct *types.ProposerAccount
	err := s.view(func(tx *bolt.Tx) error {
		var err error
		acct, err = readAccount(tx, proposer)
		return err
	})
	if err != nil {
		return nil, err
	}
	return acct, nil
}

// SaveProposerAccount persists the account record of a proposer.
func (s *Store) SaveProposerAccount(ctx context.Context, proposer common.Address, acct *types.ProposerAccount) error {
	ctx, span := trace.StartSpan(ctx, "slashdDB.SaveProposerAccount")
	defer span.End()
	return s.update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(proposerAccountsBucket)
		if err := bucket.Put(proposer.Bytes(), encodeProposerAccount(acct)); err != nil {
			return errors.Wrap(err, "failed to save proposer account")
		}
		return nil
	})
}

// UpdateProposerAccount applies fn to the proposer's current account and
// persists the result, all inside one bolt transaction. The record fn sees is
// the committed one, never a cached copy, and bolt's single writer serializes
// concurrent updates, so read-modify-write cycles routed through here can
// never lose an update. If fn returns an error the transaction aborts and
// nothing is written.
func (s *Store) UpdateProposerAccount(ctx context.Context, proposer common.Address, fn func(acct *types.ProposerAccount) error) (*types.ProposerAccount, error) {
	ctx, span := trace.StartSpan(ctx, "slashdDB.UpdateProposerAccount")
	defer span.End()
	var updated *types.ProposerAccount
	err := s.update(func(tx *bolt.Tx) error {
		acct, err := readAccount(tx, proposer)
		if err != nil {
			return err
		}
		if err := fn(acct); err != nil {
			return err
		}
		bucket := tx.Bucket(proposerAccountsBucket)
		if err := bucket.Put(proposer.Bytes(), encodeProposerAccount(acct)); err != nil {
			return errors.Wrap(err, "failed to save proposer account")
		}
		updated = acct
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// readAccount decodes the account of a proposer inside an open transaction.
func readAccount(tx *bolt.Tx, proposer common.Address) (*types.ProposerAccount, error) {
	enc := tx.Bucket(proposerAccountsBucket).Get(proposer.Bytes())
	if enc == nil {
		return types.NewProposerAccount(), nil
	}
	return decodeProposerAccount(enc)
}

// Bond returns the current bond of a proposer.
func (s *Store) Bond(ctx context.Context, proposer common.Address) (*uint256.Int, error) {
	acct, err := s.ProposerAccount(ctx, proposer)
	if err != nil {
		return nil, err
	}
	return acct.Bond, nil
}
