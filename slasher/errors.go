package slasher

import "github.com/pkg/errors"

// Every failure mode of a slash attempt is a distinct, distinguishable error.
// All are local and non-retryable by the engine itself; the caller decides
// whether to retry with different inputs. A failed attempt persists nothing:
// the commitment stays unseen and may be retried by anyone until it expires.
var (
	// ErrCommitmentExpired means the commitment deadline has passed. The
	// deadline instant itself is still valid.
	ErrCommitmentExpired = errors.New("commitment has expired")
	// ErrAlreadySlashed means the commitment digest was slashed before.
	ErrAlreadySlashed = errors.New("commitment has already been slashed")
	// ErrInvalidSignature means the signature does not authenticate the
	// claimed proposer. Malformed and wrong-signer signatures are
	// deliberately indistinguishable.
	ErrInvalidSignature = errors.New("invalid commitment signature")
	// ErrInsufficientProposerBond means the proposer's bond cannot cover the
	// slash amount.
	ErrInsufficientProposerBond = errors.New("proposer bond below slash amount")
	// ErrBlockNumberMismatch means the evidence does not correspond to the
	// committed block.
	ErrBlockNumberMismatch = errors.New("evidence block number does not match commitment")
	// ErrTransactionWasIncluded means the promise was kept: the committed
	// transaction occupies the committed index. Slashing is refused.
	ErrTransactionWasIncluded = errors.New("committed transaction was included at the committed index")
)
