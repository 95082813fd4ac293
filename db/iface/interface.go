// Package iface defines the actual database interface used by slashd,
// including both read/write access and read only access.
package iface

import (
	"context"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/inclusion-protocol/slashd/db/types"
)

// ReadOnlyDatabase represents a read only database with functions that do not modify the DB.
type ReadOnlyDatabase interface {
	// ProposerAccount related methods.
	ProposerAccount(ctx context.Context, proposer common.Address) (*types.ProposerAccount, error)
	Bond(ctx context.Context, proposer common.Address) (*uint256.Int, error)

	// SlashedCommitment related methods.
	SlashedCommitment(ctx context.Context, commitmentHash common.Hash) (bool, error)

	DatabasePath() string
}

// WriteAccessDatabase represents a write access database with only functions that can modify the DB.
type WriteAccessDatabase interface {
	// ProposerAccount related methods.
	SaveProposerAccount(ctx context.Context, proposer common.Address, acct *types.ProposerAccount) error
	UpdateProposerAccount(ctx context.Context, proposer common.Address, fn func(acct *types.ProposerAccount) error) (*types.ProposerAccount, error)

	// SlashedCommitment related methods.
	SlashAndDebit(ctx context.Context, commitmentHash common.Hash, proposer common.Address, amount *uint256.Int) error

	ClearDB() error
}

// Database represents a full access database with the proper DB helper functions.
type Database interface {
	io.Closer
	ReadOnlyDatabase
	WriteAccessDatabase
}
