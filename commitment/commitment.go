// Package commitment implements structured, domain-separated hashing and
// signature authentication for proposer inclusion commitments. A commitment
// is a signed promise that a specific transaction occupies a specific index
// in a specific block, valid until a deadline.
package commitment

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// InclusionCommitment is the value signed by a proposer. It is immutable once
// created and never persisted on its own; only its hash is recorded by the
// slashing engine.
type InclusionCommitment struct {
	// BlockNumber is the target block of the promise.
	BlockNumber uint64
	// TransactionHash identifies the promised transaction.
	TransactionHash common.Hash
	// TransactionIndex is the promised position within the block.
	TransactionIndex uint64
	// Deadline is the last instant, as a unix timestamp, at which the
	// commitment may still be slashed. The boundary is inclusive.
	Deadline *uint256.Int
}

// DeadlineOrZero returns the commitment deadline, treating an unset deadline
// as zero.
func (c *InclusionCommitment) DeadlineOrZero() *uint256.Int {
	if c.Deadline == nil {
		return uint256.NewInt(0)
	}
	return c.Deadline
}
