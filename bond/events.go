package bond

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// EventType identifies the kind of ledger event carried by an Event.
type EventType int

const (
	// DepositReceived is sent after a deposit increases a proposer's bond.
	DepositReceived EventType = iota
	// WithdrawalInitiated is sent after a withdrawal request is recorded.
	WithdrawalInitiated
	// WithdrawalCompleted is sent after a withdrawal pays out. The payout
	// transfer to the proposer is the host environment's responsibility and
	// is keyed off this event; it is the final effect of the operation.
	WithdrawalCompleted
)

// Event is sent over the ledger feed for every auditable state change.
type Event struct {
	Type EventType
	Data interface{}
}

// DepositReceivedData is the data sent with DepositReceived events.
type DepositReceivedData struct {
	Proposer common.Address
	Amount   *uint256.Int
	NewBond  *uint256.Int
}

// WithdrawalInitiatedData is the data sent with WithdrawalInitiated events.
type WithdrawalInitiatedData struct {
	Proposer   common.Address
	Amount     *uint256.Int
	UnlockTime *uint256.Int
}

// WithdrawalCompletedData is the data sent with WithdrawalCompleted events.
type WithdrawalCompletedData struct {
	Proposer      common.Address
	Amount        *uint256.Int
	RemainingBond *uint256.Int
}
