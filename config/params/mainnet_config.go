package params

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// MainnetConfig returns the configuration used against Ethereum mainnet.
func MainnetConfig() *ProtocolConfig {
	return mainnetProtocolConfig
}

// UseMainnetConfig for slashd services.
func UseMainnetConfig() {
	OverrideProtocolConfig(MainnetConfig())
}

var mainnetProtocolConfig = &ProtocolConfig{
	// 0.1 ether. The reference deployment uses the same value for the
	// minimum deposit and the per-violation penalty.
	MinBondAmount:   uint256.NewInt(100000000000000000),
	SlashAmount:     uint256.NewInt(100000000000000000),
	WithdrawalDelay: 86400, // 1 day.

	DomainName:        "InclusionCommitment",
	DomainVersion:     "1",
	ChainID:           uint256.NewInt(1),
	VerifyingContract: common.HexToAddress("0x5a0b54d5dc17e0aadc383d2db43b0a0d3e029c4c"),
}
