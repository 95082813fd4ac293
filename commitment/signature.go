package commitment

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// SignatureLength is the byte length of an [R || S || V] secp256k1 signature.
const SignatureLength = 65

// SignCommitment signs the EIP-712 digest of a commitment with the given key
// and returns a 65-byte [R || S || V] signature with V in {0, 1}.
func SignCommitment(c *InclusionCommitment, priv *ecdsa.PrivateKey) ([]byte, error) {
	digest := HashCommitment(c)
	return crypto.Sign(digest.Bytes(), priv)
}

// RecoverProposer recovers the address that signed the commitment digest.
// Both V encodings are accepted: {0, 1} and the legacy {27, 28}.
func RecoverProposer(c *InclusionCommitment, sig []byte) (common.Address, error) {
	if len(sig) != SignatureLength {
		return common.Address{}, errors.Errorf("signature must be %d bytes, got %d", SignatureLength, len(sig))
	}
	normalized := make([]byte, SignatureLength)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}
	if normalized[64] > 1 {
		return common.Address{}, errors.Errorf("invalid signature recovery id %d", sig[64])
	}
	digest := HashCommitment(c)
	pub, err := crypto.SigToPub(digest.Bytes(), normalized)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "could not recover public key")
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Authenticate reports whether sig was produced by claimedProposer's key over
// exactly this commitment under the active signing domain. Malformed
// signatures are not distinguishable from wrong-signer signatures: both
// return false.
func Authenticate(c *InclusionCommitment, claimedProposer common.Address, sig []byte) bool {
	recovered, err := RecoverProposer(c, sig)
	if err != nil {
		return false
	}
	return recovered == claimedProposer
}
