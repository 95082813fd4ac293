package kv

// The Schema will define how to store and retrieve data from the db.
// All bucket keys are raw 20-byte proposer addresses or 32-byte commitment
// digests; values are fixed-width big-endian words.
var (
	// proposerAccountsBucket maps proposer address -> encoded account record.
	proposerAccountsBucket = []byte("proposer-accounts-bucket")
	// slashedCommitmentsBucket is the append-only set of slashed commitment
	// digests. A key enters this bucket exactly once and is never removed.
	slashedCommitmentsBucket = []byte("slashed-commitments-bucket")
)
