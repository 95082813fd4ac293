package commitment

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/inclusion-protocol/slashd/config/params"
)

// EIP-712 type hashes. The ordered field list is part of the signing scheme
// and must never change without bumping the domain version.
var (
	eip712DomainTypeHash = crypto.Keccak256(
		[]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"),
	)
	inclusionCommitmentTypeHash = crypto.Keccak256(
		[]byte("InclusionCommitment(uint64 blockNumber,bytes32 transactionHash,uint64 transactionIndex,uint256 deadline)"),
	)
)

// DomainSeparator returns the EIP-712 domain separator of the active
// deployment. Commitments signed under a different protocol name, version,
// chain id, or contract instance hash to different digests and therefore can
// never authenticate here.
func DomainSeparator() common.Hash {
	cfg := params.ProtoConfig()
	chainID := cfg.ChainID.Bytes32()
	return crypto.Keccak256Hash(
		eip712DomainTypeHash,
		crypto.Keccak256([]byte(cfg.DomainName)),
		crypto.Keccak256([]byte(cfg.DomainVersion)),
		chainID[:],
		common.LeftPadBytes(cfg.VerifyingContract.Bytes(), 32),
	)
}

// HashCommitment computes the EIP-712 digest of a commitment:
// keccak256(0x19 || 0x01 || domainSeparator || structHash). Two commitments
// with identical field values are indistinguishable for slashing purposes;
// this digest is their shared identity.
func HashCommitment(c *InclusionCommitment) common.Hash {
	blockNumber := uint256.NewInt(c.BlockNumber).Bytes32()
	txIndex := uint256.NewInt(c.TransactionIndex).Bytes32()
	deadline := c.DeadlineOrZero().Bytes32()
	structHash := crypto.Keccak256(
		inclusionCommitmentTypeHash,
		blockNumber[:],
		c.TransactionHash.Bytes(),
		txIndex[:],
		deadline[:],
	)
	domain := DomainSeparator()
	return crypto.Keccak256Hash([]byte{0x19, 0x01}, domain.Bytes(), structHash)
}
