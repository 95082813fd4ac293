// Package params defines the protocol parameters of the inclusion-commitment
// bond and slashing system. Values are fixed at process start and shared by
// every component through the accessors below.
package params

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ProtocolConfig contains the economic constants and the signing-domain
// parameters of a single deployment. The domain fields bind commitment
// signatures to one protocol instance on one chain, so a signature collected
// for one deployment can never be replayed against another.
type ProtocolConfig struct {
	// Economic constants.
	MinBondAmount   *uint256.Int // Minimum wei accepted by a single deposit.
	SlashAmount     *uint256.Int // Wei destroyed per proven violation.
	WithdrawalDelay uint64       // Seconds between initiating and completing a withdrawal.

	// EIP-712 signing domain.
	DomainName        string
	DomainVersion     string
	ChainID           *uint256.Int
	VerifyingContract common.Address
}

var protocolConfig = MainnetConfig()
var protocolConfigLock sync.RWMutex

// ProtoConfig retrieves the active protocol configuration.
func ProtoConfig() *ProtocolConfig {
	protocolConfigLock.RLock()
	defer protocolConfigLock.RUnlock()
	return protocolConfig
}

// OverrideProtocolConfig replaces the active config. The preferred pattern is
// to call ProtoConfig().Copy(), change specific parameters, and then call
// OverrideProtocolConfig(c). Tests use this together with t.Cleanup to
// restore the previous configuration.
func OverrideProtocolConfig(c *ProtocolConfig) {
	protocolConfigLock.Lock()
	defer protocolConfigLock.Unlock()
	protocolConfig = c
}

// Copy returns a deep copy of the config object.
func (c *ProtocolConfig) Copy() *ProtocolConfig {
	protocolConfigLock.RLock()
	defer protocolConfigLock.RUnlock()
	cp := *c
	cp.MinBondAmount = new(uint256.Int).Set(c.MinBondAmount)
	cp.SlashAmount = new(uint256.Int).Set(c.SlashAmount)
	cp.ChainID = new(uint256.Int).Set(c.ChainID)
	return &cp
}
