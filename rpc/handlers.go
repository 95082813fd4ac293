package rpc

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"
	"github.com/holiman/uint256"
	"github.com/inclusion-protocol/slashd/bond"
	"github.com/inclusion-protocol/slashd/commitment"
	"github.com/inclusion-protocol/slashd/db/types"
	"github.com/inclusion-protocol/slashd/slasher"
	"github.com/inclusion-protocol/slashd/verifier"
	"github.com/pkg/errors"
)

type errorResponse struct {
	Error string `json:"error"`
}

type accountResponse struct {
	Proposer                    string `json:"proposer"`
	Bond                        string `json:"bond"`
	PendingWithdrawalAmount     string `json:"pendingWithdrawalAmount"`
	PendingWithdrawalUnlockTime string `json:"pendingWithdrawalUnlockTime"`
}

type bondRequest struct {
	Proposer string `json:"proposer"`
	Amount   string `json:"amount,omitempty"`
}

type commitmentRequest struct {
	BlockNumber      uint64 `json:"blockNumber"`
	TransactionHash  string `json:"transactionHash"`
	TransactionIndex uint64 `json:"transactionIndex"`
	Deadline         string `json:"deadline"`
}

type slashRequest struct {
	Commitment   commitmentRequest `json:"commitment"`
	Proposer     string            `json:"proposer"`
	Signature    hexutil.Bytes     `json:"signature"`
	PublicValues hexutil.Bytes     `json:"publicValues"`
	Proof        hexutil.Bytes     `json:"proof"`
	Caller       string            `json:"caller"`
}

type slashResponse struct {
	CommitmentHash string `json:"commitmentHash"`
	Slashed        bool   `json:"slashed"`
}

func parseUint256(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, errors.New("missing amount")
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return uint256.FromHex(s)
	}
	z := new(uint256.Int)
	if err := z.SetFromDecimal(s); err != nil {
		return nil, err
	}
	return z, nil
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, errors.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Could not encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusForError(err), &errorResponse{Error: err.Error()})
}

// statusForError maps every failure mode of the state machine onto an HTTP
// status. Verifier failures are 422: the submission was well-formed but its
// evidence did not check out.
func statusForError(err error) int {
	switch {
	case errors.Is(err, bond.ErrBelowMinimumBond),
		errors.Is(err, bond.ErrInsufficientBond),
		errors.Is(err, slasher.ErrInsufficientProposerBond),
		errors.Is(err, slasher.ErrInvalidSignature),
		errors.Is(err, slasher.ErrBlockNumberMismatch):
		return http.StatusBadRequest
	case errors.Is(err, bond.ErrNoWithdrawalPending),
		errors.Is(err, bond.ErrWithdrawalLocked),
		errors.Is(err, slasher.ErrAlreadySlashed),
		errors.Is(err, slasher.ErrTransactionWasIncluded):
		return http.StatusConflict
	case errors.Is(err, slasher.ErrCommitmentExpired):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func accountView(proposer common.Address, acct *types.ProposerAccount) *accountResponse {
	return &accountResponse{
		Proposer:                    proposer.Hex(),
		Bond:                        acct.Bond.String(),
		PendingWithdrawalAmount:     acct.PendingWithdrawalAmount.String(),
		PendingWithdrawalUnlockTime: acct.PendingWithdrawalUnlockTime.String(),
	}
}

func (s *Service) depositHandler(w http.ResponseWriter, r *http.Request) {
	var req bondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, &errorResponse{Error: "malformed request body"})
		return
	}
	proposer, err := parseAddress(req.Proposer)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, &errorResponse{Error: err.Error()})
		return
	}
	amount, err := parseUint256(req.Amount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, &errorResponse{Error: err.Error()})
		return
	}
	acct, err := s.cfg.Ledger.Deposit(r.Context(), proposer, amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accountView(proposer, acct))
}

func (s *Service) initiateWithdrawalHandler(w http.ResponseWriter, r *http.Request) {
	var req bondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, &errorResponse{Error: "malformed request body"})
		return
	}
	proposer, err := parseAddress(req.Proposer)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, &errorResponse{Error: err.Error()})
		return
	}
	amount, err := parseUint256(req.Amount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, &errorResponse{Error: err.Error()})
		return
	}
	acct, err := s.cfg.Ledger.InitiateWithdrawal(r.Context(), proposer, amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accountView(proposer, acct))
}

func (s *Service) completeWithdrawalHandler(w http.ResponseWriter, r *http.Request) {
	var req bondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, &errorResponse{Error: "malformed request body"})
		return
	}
	proposer, err := parseAddress(req.Proposer)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, &errorResponse{Error: err.Error()})
		return
	}
	acct, err := s.cfg.Ledger.CompleteWithdrawal(r.Context(), proposer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accountView(proposer, acct))
}

func (s *Service) bondHandler(w http.ResponseWriter, r *http.Request) {
	proposer, err := parseAddress(mux.Vars(r)["proposer"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, &errorResponse{Error: err.Error()})
		return
	}
	amount, unlockTime, err := s.cfg.Ledger.PendingWithdrawal(r.Context(), proposer)
	if err != nil {
		writeError(w, err)
		return
	}
	currentBond, err := s.cfg.Ledger.Bond(r.Context(), proposer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &accountResponse{
		Proposer:                    proposer.Hex(),
		Bond:                        currentBond.String(),
		PendingWithdrawalAmount:     amount.String(),
		PendingWithdrawalUnlockTime: unlockTime.String(),
	})
}

func (s *Service) slashHandler(w http.ResponseWriter, r *http.Request) {
	var req slashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, &errorResponse{Error: "malformed request body"})
		return
	}
	proposer, err := parseAddress(req.Proposer)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, &errorResponse{Error: err.Error()})
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, &errorResponse{Error: err.Error()})
		return
	}
	deadline, err := parseUint256(req.Commitment.Deadline)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, &errorResponse{Error: err.Error()})
		return
	}
	c := &commitment.InclusionCommitment{
		BlockNumber:      req.Commitment.BlockNumber,
		TransactionHash:  common.HexToHash(req.Commitment.TransactionHash),
		TransactionIndex: req.Commitment.TransactionIndex,
		Deadline:         deadline,
	}
	commitmentHash, err := s.cfg.Engine.Slash(r.Context(), c, proposer, req.Signature, req.PublicValues, req.Proof, caller)
	if err != nil {
		// Verifier rejections propagate unchanged from the engine; surface
		// them as an unprocessable submission rather than a server fault.
		if errors.Is(err, verifier.ErrVerificationFailed) {
			writeJSON(w, http.StatusUnprocessableEntity, &errorResponse{Error: err.Error()})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &slashResponse{
		CommitmentHash: commitmentHash.Hex(),
		Slashed:        true,
	})
}

func (s *Service) slashedHandler(w http.ResponseWriter, r *http.Request) {
	hash := common.HexToHash(mux.Vars(r)["hash"])
	slashed, err := s.cfg.Engine.IsSlashed(r.Context(), hash)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"commitmentHash": hash.Hex(),
		"slashed":        slashed,
	})
}
