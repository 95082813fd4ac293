package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

var log = logrus.WithField("prefix", "verifier")

// ErrVerificationFailed is returned when the gateway rejects a proof. It is
// fatal to the slash attempt that submitted it; the engine never retries.
var ErrVerificationFailed = errors.New("proof verification failed")

const defaultRequestTimeout = 2 * time.Minute

// RemoteVerifier verifies inclusion proofs through an external proof
// verification gateway and decodes the attested public values locally.
type RemoteVerifier struct {
	endpoint string
	client   *http.Client
}

// NewRemoteVerifier creates a verifier client for the gateway at endpoint.
func NewRemoteVerifier(endpoint string) *RemoteVerifier {
	return &RemoteVerifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: defaultRequestTimeout},
	}
}

type verifyRequest struct {
	PublicValues hexutil.Bytes `json:"publicValues"`
	Proof        hexutil.Bytes `json:"proof"`
}

type verifyResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// VerifyInclusion submits the proof to the gateway. Proof verification may be
// slow; callers must not hold account locks across this call.
func (v *RemoteVerifier) VerifyInclusion(ctx context.Context, publicValues, proof []byte) (*Evidence, error) {
	ctx, span := trace.StartSpan(ctx, "verifier.VerifyInclusion")
	defer span.End()

	body, err := json.Marshal(&verifyRequest{PublicValues: publicValues, Proof: proof})
	if err != nil {
		return nil, errors.Wrap(err, "could not marshal verification request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "could not build verification request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "could not reach verification gateway")
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.WithError(err).Debug("Could not close response body")
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("verification gateway returned status %d", resp.StatusCode)
	}
	var decoded verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, errors.Wrap(err, "could not decode verification response")
	}
	if !decoded.Valid {
		if decoded.Error != "" {
			return nil, errors.Wrap(ErrVerificationFailed, decoded.Error)
		}
		return nil, ErrVerificationFailed
	}
	return DecodePublicValues(publicValues)
}
