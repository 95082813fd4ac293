// Package verifier defines the boundary to the external inclusion-proof
// verifier. The verifier attests, for a given block, what transaction (if
// any) occupies a precise index. How the proof is produced is out of scope
// here; the slashing engine trusts the decoded output unconditionally once
// verification succeeds.
package verifier

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Evidence is the decoded public output of a verified inclusion proof.
type Evidence struct {
	BlockHash           common.Hash
	BlockNumber         uint64
	TransactionHash     common.Hash
	TransactionIndex    uint64
	IsIncluded          bool
	VerifiedAgainstRoot common.Hash
}

// Verifier consumes an opaque public-values blob and an opaque proof blob and
// either fails verification or returns the decoded evidence.
type Verifier interface {
	VerifyInclusion(ctx context.Context, publicValues, proof []byte) (*Evidence, error)
}

// publicValuesArgs mirrors the ABI tuple committed by the proving circuit:
// (bytes32 blockHash, uint64 blockNumber, bytes32 transactionHash,
// uint64 transactionIndex, bool isIncluded, bytes32 verifiedAgainstRoot).
var publicValuesArgs = abi.Arguments{
	{Name: "blockHash", Type: mustNewType("bytes32")},
	{Name: "blockNumber", Type: mustNewType("uint64")},
	{Name: "transactionHash", Type: mustNewType("bytes32")},
	{Name: "transactionIndex", Type: mustNewType("uint64")},
	{Name: "isIncluded", Type: mustNewType("bool")},
	{Name: "verifiedAgainstRoot", Type: mustNewType("bytes32")},
}

func mustNewType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

// DecodePublicValues unpacks the ABI-encoded public values of an inclusion
// proof into evidence.
func DecodePublicValues(data []byte) (*Evidence, error) {
	values, err := publicValuesArgs.Unpack(data)
	if err != nil {
		return nil, errors.Wrap(err, "could not unpack public values")
	}
	if len(values) != 6 {
		return nil, errors.Errorf("expected 6 public values, got %d", len(values))
	}
	blockHash, ok := values[0].([32]byte)
	if !ok {
		return nil, errors.New("malformed block hash")
	}
	blockNumber, ok := values[1].(uint64)
	if !ok {
		return nil, errors.New("malformed block number")
	}
	txHash, ok := values[2].([32]byte)
	if !ok {
		return nil, errors.New("malformed transaction hash")
	}
	txIndex, ok := values[3].(uint64)
	if !ok {
		return nil, errors.New("malformed transaction index")
	}
	isIncluded, ok := values[4].(bool)
	if !ok {
		return nil, errors.New("malformed inclusion flag")
	}
	root, ok := values[5].([32]byte)
	if !ok {
		return nil, errors.New("malformed verified root")
	}
	return &Evidence{
		BlockHash:           blockHash,
		BlockNumber:         blockNumber,
		TransactionHash:     txHash,
		TransactionIndex:    txIndex,
		IsIncluded:          isIncluded,
		VerifiedAgainstRoot: root,
	}, nil
}

// EncodePublicValues packs evidence back into the circuit's ABI layout. Used
// by tooling and tests that build verifier inputs.
func EncodePublicValues(ev *Evidence) ([]byte, error) {
	var blockHash, txHash, root [32]byte
	copy(blockHash[:], ev.BlockHash.Bytes())
	copy(txHash[:], ev.TransactionHash.Bytes())
	copy(root[:], ev.VerifiedAgainstRoot.Bytes())
	return publicValuesArgs.Pack(
		blockHash,
		ev.BlockNumber,
		txHash,
		ev.TransactionIndex,
		ev.IsIncluded,
		root,
	)
}
