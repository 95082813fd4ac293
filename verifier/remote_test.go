package verifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteVerifier_Valid(t *testing.T) {
	evidence := &Evidence{
		BlockHash:           common.HexToHash("0x01"),
		BlockNumber:         8000000,
		TransactionHash:     common.HexToHash("0x02"),
		TransactionIndex:    14,
		IsIncluded:          true,
		VerifiedAgainstRoot: common.HexToHash("0x03"),
	}
	publicValues, err := EncodePublicValues(evidence)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var req verifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, publicValues, []byte(req.PublicValues))
		assert.Equal(t, []byte{0xaa, 0xbb}, []byte(req.Proof))
		require.NoError(t, json.NewEncoder(w).Encode(&verifyResponse{Valid: true}))
	}))
	defer srv.Close()

	v := NewRemoteVerifier(srv.URL)
	got, err := v.VerifyInclusion(context.Background(), publicValues, []byte{0xaa, 0xbb})
	require.NoError(t, err)
	assert.Equal(t, evidence, got)
}

func TestRemoteVerifier_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(&verifyResponse{Valid: false, Error: "bad groth16 proof"}))
	}))
	defer srv.Close()

	v := NewRemoteVerifier(srv.URL)
	_, err := v.VerifyInclusion(context.Background(), []byte{0x01}, []byte{0x02})
	require.ErrorIs(t, err, ErrVerificationFailed)
	assert.Contains(t, err.Error(), "bad groth16 proof")
}

func TestRemoteVerifier_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	v := NewRemoteVerifier(srv.URL)
	_, err := v.VerifyInclusion(context.Background(), []byte{0x01}, []byte{0x02})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrVerificationFailed)
}

func TestRemoteVerifier_Unreachable(t *testing.T) {
	v := NewRemoteVerifier("http://127.0.0.1:1")
	_, err := v.VerifyInclusion(context.Background(), []byte{0x01}, []byte{0x02})
	require.Error(t, err)
}
