// Package types includes the database record types shared across slashd.
package types

import "github.com/holiman/uint256"

// ProposerAccount holds the collateral state of a single proposer. Accounts
// are created implicitly, zero-initialized, on first deposit. The bond
// remains fully slashable while a withdrawal is pending; only a completed
// withdrawal reduces it.
type ProposerAccount struct {
	// Bond is the collateral currently locked, in wei.
	Bond *uint256.Int
	// PendingWithdrawalAmount is the wei requested by the most recent
	// withdrawal initiation. A later initiation overwrites it.
	PendingWithdrawalAmount *uint256.Int
	// PendingWithdrawalUnlockTime is the unix timestamp at which the pending
	// withdrawal may complete. Zero means no withdrawal is pending.
	PendingWithdrawalUnlockTime *uint256.Int
}

// NewProposerAccount returns a zero-initialized account.
func NewProposerAccount() *ProposerAccount {
	return &ProposerAccount{
		Bond:                        uint256.NewInt(0),
		PendingWithdrawalAmount:     uint256.NewInt(0),
		PendingWithdrawalUnlockTime: uint256.NewInt(0),
	}
}

// HasPendingWithdrawal reports whether a withdrawal has been initiated and
// not yet completed.
func (a *ProposerAccount) HasPendingWithdrawal() bool {
	return !a.PendingWithdrawalUnlockTime.IsZero()
}

// Copy returns a deep copy of the account record.
func (a *ProposerAccount) Copy() *ProposerAccount {
	return &ProposerAccount{
		Bond:                        new(uint256.Int).Set(a.Bond),
		PendingWithdrawalAmount:     new(uint256.Int).Set(a.PendingWithdrawalAmount),
		PendingWithdrawalUnlockTime: new(uint256.Int).Set(a.PendingWithdrawalUnlockTime),
	}
}
